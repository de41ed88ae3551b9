package ecs

import "testing"

type recordSystem struct {
	name string
	log  *[]string
}

func (s recordSystem) Update(*World) { *s.log = append(*s.log, s.name) }

func TestSchedulerOrder(t *testing.T) {
	var log []string
	s := NewScheduler(recordSystem{"a", &log}, nil, recordSystem{"b", &log})
	s.Add(nil)
	s.Add(recordSystem{"c", &log})
	s.Update(NewWorld())
	if len(log) != 3 || log[0] != "a" || log[1] != "b" || log[2] != "c" {
		t.Fatalf("order = %v", log)
	}
	if len(s.Systems()) != 3 {
		t.Fatalf("systems = %d", len(s.Systems()))
	}
}
