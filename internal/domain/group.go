package domain

import (
	"fmt"
	"strings"
	"time"
)

type GroupID string

// Group is a named set of accounts that a broadcast can target.
type Group struct {
	ID        GroupID
	Name      string
	Members   []AccountID
	UpdatedAt time.Time
}

func (g Group) Validate() error {
	if strings.TrimSpace(string(g.ID)) == "" {
		return fmt.Errorf("id is required")
	}
	if strings.TrimSpace(g.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if len(g.Members) == 0 {
		return fmt.Errorf("group %q has no members", g.ID)
	}

	return nil
}

func (g *Group) NormalizeMembers() {
	if g == nil {
		return
	}

	members := make([]AccountID, 0, len(g.Members))
	seen := make(map[AccountID]struct{}, len(g.Members))
	for _, member := range g.Members {
		trimmed := AccountID(strings.TrimSpace(string(member)))
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		members = append(members, trimmed)
	}

	g.Members = members
}
