package app

import (
	"testing"

	"github.com/recoup/collections-service/internal/domain"
)

func TestLevelForDaysOverdue_Boundaries(t *testing.T) {
	cases := []struct {
		days int
		want domain.Level
	}{
		{0, domain.LevelPending},
		{4, domain.LevelPending},
		{5, domain.LevelGentle},
		{14, domain.LevelGentle},
		{15, domain.LevelFirm},
		{29, domain.LevelFirm},
		{30, domain.LevelFinal},
		{59, domain.LevelFinal},
		{60, domain.LevelAgency},
		{365, domain.LevelAgency},
	}

	for _, tc := range cases {
		if got := LevelForDaysOverdue(tc.days); got != tc.want {
			t.Errorf("LevelForDaysOverdue(%d) = %s, want %s", tc.days, got, tc.want)
		}
	}
}

func TestShouldEscalate(t *testing.T) {
	if !ShouldEscalate(domain.LevelPending, 20) {
		t.Error("expected pending at 20 days to escalate")
	}
	if ShouldEscalate(domain.LevelFirm, 20) {
		t.Error("expected firm at 20 days not to escalate")
	}
	// Levels never move backwards even if days overdue maps lower.
	if ShouldEscalate(domain.LevelAgency, 10) {
		t.Error("expected agency never to de-escalate")
	}
	if ShouldEscalate(domain.LevelPending, 0) {
		t.Error("expected no escalation at 0 days overdue")
	}
}

func TestChannelsForLevel(t *testing.T) {
	if got := ChannelsForLevel(domain.LevelPending); got != nil {
		t.Errorf("expected no channels at pending, got %v", got)
	}
	if got := ChannelsForLevel(domain.LevelGentle); len(got) != 1 || got[0] != domain.ChannelEmail {
		t.Errorf("expected email only at gentle, got %v", got)
	}
	for _, level := range []domain.Level{domain.LevelFirm, domain.LevelFinal} {
		got := ChannelsForLevel(level)
		if len(got) != 2 || got[0] != domain.ChannelEmail || got[1] != domain.ChannelSMS {
			t.Errorf("expected email+SMS at %s, got %v", level, got)
		}
	}
	if got := ChannelsForLevel(domain.LevelAgency); len(got) != 3 {
		t.Errorf("expected three channels at agency, got %v", got)
	}
}
