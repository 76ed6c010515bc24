package projection

import (
	"slices"

	"scenecraft/internal/event"
	"scenecraft/internal/relstatus"
)

// Apply folds a single event into p. It never fails: missing data is handled
// by defaults and no-ops.
func Apply(p *Projection, e event.Event, tiers relstatus.Tiers) {
	if p.Characters == nil {
		p.Characters = make(map[string]*Character)
	}
	if p.Relationships == nil {
		p.Relationships = make(map[event.Pair]*Relationship)
	}

	switch payload := e.Payload.(type) {
	case event.TimeSet:
		t := payload.At.UTC()
		p.Time = &t
	case event.TimeDelta:
		if p.Time == nil {
			return
		}
		t := p.Time.Add(payload.Duration())
		p.Time = &t
	case event.LocationMoved:
		p.Location = Location{Area: payload.Area, Place: payload.Place, Position: payload.Position}
	case event.LocationPatched:
		if payload.Area != nil {
			p.Location.Area = *payload.Area
		}
		if payload.Place != nil {
			p.Location.Place = *payload.Place
		}
		if payload.Position != nil {
			p.Location.Position = *payload.Position
		}
	case event.PropChange:
		if payload.Op == event.SubkindPropAdded {
			p.Location.Props = insertSorted(p.Location.Props, payload.Prop)
		} else {
			p.Location.Props = removeSorted(p.Location.Props, payload.Prop)
		}
	case event.ClimateChanged:
		c := Climate{Conditions: payload.Conditions}
		if payload.TemperatureC != nil {
			temp := *payload.TemperatureC
			c.TemperatureC = &temp
		}
		p.Climate = &c
	case event.CharacterChange:
		applyCharacter(p, payload)
	case event.RelationshipChange:
		applyRelationship(p, payload, tiers)
	case event.SceneChange:
		applyScene(&p.Scene, payload)
	case event.ChapterEnded:
		p.Chapter = max(p.Chapter, payload.Index+1)
	case event.ChapterDescribed:
	case event.NarrativeDescribed:
		p.Narrative = append(p.Narrative, NarrativeEntry{
			EventID:     e.ID,
			Turn:        e.Origin.TurnID,
			Kind:        EntryDescription,
			Description: payload.Description,
		})
	case event.SubjectRecorded:
		r := relationship(p, payload.Pair)
		if !slices.Contains(r.Milestones, payload.Subject) {
			r.Milestones = append(r.Milestones, payload.Subject)
		}
		p.Narrative = append(p.Narrative, NarrativeEntry{
			EventID: e.ID,
			Turn:    e.Origin.TurnID,
			Kind:    EntrySubject,
			Pair:    payload.Pair,
			Subject: payload.Subject,
		})
	}
}

func character(p *Projection, name string) *Character {
	c, ok := p.Characters[name]
	if !ok {
		c = &Character{Name: name}
		p.Characters[name] = c
	}
	return c
}

func applyCharacter(p *Projection, change event.CharacterChange) {
	c := character(p, change.Character)
	switch change.Op {
	case event.SubkindAppeared:
		p.Present = insertSorted(p.Present, change.Character)
	case event.SubkindDeparted:
		p.Present = removeSorted(p.Present, change.Character)
	case event.SubkindPositionChanged:
		c.Position = change.NewValue
	case event.SubkindActivityChanged:
		c.Activity = change.NewValue
	case event.SubkindOutfitChanged:
		if change.NewValue == "" {
			delete(c.Outfit, change.Slot)
			return
		}
		if c.Outfit == nil {
			c.Outfit = make(map[string]string)
		}
		c.Outfit[change.Slot] = change.NewValue
	case event.SubkindMoodAdded:
		c.Moods = addUnique(c.Moods, change.NewValue)
	case event.SubkindMoodRemoved:
		c.Moods = remove(c.Moods, change.NewValue)
	case event.SubkindPhysicalStateAdded:
		c.PhysicalStates = addUnique(c.PhysicalStates, change.NewValue)
	case event.SubkindPhysicalStateRemoved:
		c.PhysicalStates = remove(c.PhysicalStates, change.NewValue)
	}
}

func relationship(p *Projection, pair event.Pair) *Relationship {
	r, ok := p.Relationships[pair]
	if !ok {
		r = &Relationship{Pair: pair, Status: relstatus.Strangers}
		p.Relationships[pair] = r
	}
	return r
}

func applyRelationship(p *Projection, change event.RelationshipChange, tiers relstatus.Tiers) {
	_, existed := p.Relationships[change.Pair]
	r := relationship(p, change.Pair)
	if change.Op == event.SubkindStatusChanged {
		current := r.Status
		if !existed {
			current = relstatus.Lowest
		}
		r.Status = relstatus.Gate(change.Value, current, r.MilestoneSet(), tiers)
		return
	}

	if r.Attitudes == nil {
		r.Attitudes = make(map[string]*Attitude)
	}
	a, ok := r.Attitudes[change.From]
	if !ok {
		a = &Attitude{Toward: change.Pair.Other(change.From)}
		r.Attitudes[change.From] = a
	}

	switch change.Op {
	case event.SubkindFeelingAdded:
		a.Feelings = addUnique(a.Feelings, change.Value)
	case event.SubkindFeelingRemoved:
		a.Feelings = remove(a.Feelings, change.Value)
	case event.SubkindSecretAdded:
		a.Secrets = addUnique(a.Secrets, change.Value)
	case event.SubkindSecretRemoved:
		a.Secrets = remove(a.Secrets, change.Value)
	case event.SubkindWantAdded:
		a.Wants = addUnique(a.Wants, change.Value)
	case event.SubkindWantRemoved:
		a.Wants = remove(a.Wants, change.Value)
	}
}

func applyScene(s *Scene, change event.SceneChange) {
	switch change.Op {
	case event.SubkindTopicChanged:
		s.Topic = change.Value
	case event.SubkindToneChanged:
		s.Tone = change.Value
	case event.SubkindTensionChanged:
		direction := event.TensionStable
		if s.tensionSet {
			prev, _ := s.Tension.Level.Rank()
			next, _ := change.Level.Rank()
			switch {
			case next > prev:
				direction = event.TensionEscalating
			case next < prev:
				direction = event.TensionDecreasing
			}
		}
		s.Tension = Tension{Level: change.Level, Type: change.Type, Direction: direction}
		s.tensionSet = true
	}
}

// addUnique appends v unless present, keeping first-seen order.
func addUnique(list []string, v string) []string {
	if slices.Contains(list, v) {
		return list
	}
	return append(list, v)
}

func remove(list []string, v string) []string {
	i := slices.Index(list, v)
	if i < 0 {
		return list
	}
	return slices.Delete(list, i, i+1)
}

func insertSorted(list []string, v string) []string {
	i, found := slices.BinarySearch(list, v)
	if found {
		return list
	}
	return slices.Insert(list, i, v)
}

func removeSorted(list []string, v string) []string {
	i, found := slices.BinarySearch(list, v)
	if !found {
		return list
	}
	return slices.Delete(list, i, i+1)
}
