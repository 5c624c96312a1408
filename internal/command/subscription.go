package command

import "strings"

// Subscription is the set of status commands observed during a session.
// A nil Subscription subscribes to every known command.
type Subscription map[StatusCommand]struct{}

// Subscribe builds a subscription from commands.
func Subscribe(commands ...StatusCommand) Subscription {
	s := make(Subscription, len(commands))
	for _, c := range commands {
		s[c] = struct{}{}
	}
	return s
}

// ParseSubscription resolves command names. A nil slice yields a nil (all)
// subscription; an empty slice subscribes to nothing.
func ParseSubscription(names []string) (Subscription, error) {
	if names == nil {
		return nil, nil
	}
	s := make(Subscription, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		c, err := Lookup(name)
		if err != nil {
			return nil, err
		}
		s[c] = struct{}{}
	}
	return s, nil
}

// Contains reports whether c is subscribed.
func (s Subscription) Contains(c StatusCommand) bool {
	if s == nil {
		return true
	}
	_, ok := s[c]
	return ok
}

// Commands returns the subscribed commands in report order.
func (s Subscription) Commands() []StatusCommand {
	out := make([]StatusCommand, 0, len(allStatusCommands))
	for _, c := range allStatusCommands {
		if s.Contains(c) {
			out = append(out, c)
		}
	}
	return out
}

// Tables are the polling tables the document side evaluates on every
// selection change. Only subscribed commands appear in them.
type Tables struct {
	// State lists native names of subscribed STATE commands.
	State []string
	// Value lists native names of subscribed VALUE commands.
	Value []string
	// ReportLink is true when the COMPLEX link status is subscribed.
	ReportLink bool
}

// Tables splits the subscription by status type, in report order.
func (s Subscription) Tables() Tables {
	t := Tables{State: []string{}, Value: []string{}}
	for _, c := range s.Commands() {
		switch c.statusType {
		case StatusState:
			t.State = append(t.State, c.argument)
		case StatusValue:
			t.Value = append(t.Value, c.argument)
		case StatusComplex:
			if c == Link {
				t.ReportLink = true
			}
		}
	}
	return t
}

// IsEmpty reports whether the tables poll nothing.
func (t Tables) IsEmpty() bool {
	return len(t.State) == 0 && len(t.Value) == 0 && !t.ReportLink
}
