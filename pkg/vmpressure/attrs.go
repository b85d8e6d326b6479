package vmpressure

import "github.com/ja7ad/revshift/pkg/attr"

const (
	AttrWindow       = "vmpressure_window"
	AttrLevelMed     = "vmpressure_level_med"
	AttrLevelOOM     = "vmpressure_level_oom"
	AttrLevelOOMPrio = "vmpressure_level_oom_prio"
	AttrLevel        = "vmpressure_level"
)

// RegisterAttrs exposes the tunables, plus the current level read-only.
func (s *Service) RegisterAttrs(set *attr.Set) {
	field := func(name string, ptr func(*Tunables) *uint32) attr.Attr {
		return attr.Attr{
			Name: name,
			Get: func() uint64 {
				t := s.Tunables()
				return uint64(*ptr(&t))
			},
			Set: func(v uint64) error {
				return s.UpdateTunables(func(t *Tunables) { *ptr(t) = uint32(v) })
			},
		}
	}
	set.Register(
		field(AttrWindow, func(t *Tunables) *uint32 { return &t.Window }),
		field(AttrLevelMed, func(t *Tunables) *uint32 { return &t.LevelMed }),
		field(AttrLevelOOM, func(t *Tunables) *uint32 { return &t.LevelOOM }),
		field(AttrLevelOOMPrio, func(t *Tunables) *uint32 { return &t.LevelOOMPrio }),
		attr.Attr{Name: AttrLevel, Get: func() uint64 { return uint64(s.Level()) }},
	)
}
