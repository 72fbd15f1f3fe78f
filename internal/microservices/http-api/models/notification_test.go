package models

import "testing"

func TestNotificationType_Valid(t *testing.T) {
	valid := []NotificationType{
		TypeJourneyLiked, TypeDetailLiked, TypeJourneyCommented,
		TypeJourneyBookmarked, TypeCommentReplied, TypeCommentLiked, TypeNewFollower,
	}
	for _, typ := range valid {
		if !typ.Valid() {
			t.Errorf("Expected %q to be a valid type", typ)
		}
	}

	if NotificationType("journey_shared").Valid() {
		t.Error("Expected unknown type to be invalid")
	}
	if NotificationType("").Valid() {
		t.Error("Expected empty type to be invalid")
	}
}

func TestNotificationType_AllowsTarget(t *testing.T) {
	cases := []struct {
		typ     NotificationType
		kind    TargetKind
		allowed bool
	}{
		{TypeJourneyLiked, TargetJourneys, true},
		{TypeJourneyLiked, TargetUsers, false},
		{TypeNewFollower, TargetUsers, true},
		{TypeNewFollower, TargetJourneys, false},
		{TypeCommentReplied, TargetComments, true},
		{TypeCommentReplied, TargetJourneys, false},
		{TypeCommentLiked, TargetComments, true},
		{TypeJourneyBookmarked, TargetJourneys, true},
		{TypeJourneyBookmarked, TargetJourneyDetails, true},
		{TypeDetailLiked, TargetJourneyDetails, true},
		{TypeJourneyCommented, TargetJourneys, true},
		{TypeJourneyCommented, TargetComments, false},
	}

	for _, tc := range cases {
		if got := tc.typ.AllowsTarget(tc.kind); got != tc.allowed {
			t.Errorf("%s.AllowsTarget(%s) = %v, want %v", tc.typ, tc.kind, got, tc.allowed)
		}
	}
}

func TestTargetConstructors(t *testing.T) {
	if tgt := UserTarget("u1"); tgt.Kind != TargetUsers || tgt.ID != "u1" {
		t.Errorf("UserTarget built %+v", tgt)
	}
	if tgt := JourneyTarget("j1"); tgt.Kind != TargetJourneys || tgt.ID != "j1" {
		t.Errorf("JourneyTarget built %+v", tgt)
	}
	if tgt := JourneyDetailTarget("d1"); tgt.Kind != TargetJourneyDetails || tgt.ID != "d1" {
		t.Errorf("JourneyDetailTarget built %+v", tgt)
	}
	if tgt := CommentTarget("c1"); tgt.Kind != TargetComments || tgt.ID != "c1" {
		t.Errorf("CommentTarget built %+v", tgt)
	}
}
