package partition

import (
	"errors"
	"fmt"

	"ng-locations/internal/location"
)

// 文档注释：校验分区的引用完整性与名称派生一致性
// 约束：收集全部问题后一次性返回（errors.Join），便于一次修正源数据；每一层的 id 在整个数据集内唯一。
func Verify(ds *Dataset) error {
	var errs []error
	name := func(kind, value, got string) {
		if want := location.FormatName(value); got != want {
			errs = append(errs, fmt.Errorf("%s %q: name %q, want %q", kind, value, got, want))
		}
	}
	ids := map[string]map[string]bool{}
	unique := func(kind, id string) {
		if ids[kind] == nil {
			ids[kind] = map[string]bool{}
		}
		if ids[kind][id] {
			errs = append(errs, fmt.Errorf("%s id %q: duplicate", kind, id))
		}
		ids[kind][id] = true
	}
	states := map[string]bool{}
	for _, s := range ds.States {
		states[s.Value] = true
		unique("state", s.ID)
		name("state", s.Value, s.Name)
	}
	lgas := map[string]bool{}
	for st, list := range ds.LGAs {
		if !states[st] {
			errs = append(errs, fmt.Errorf("lga partition %q: unknown state", st))
		}
		for _, l := range list {
			if l.State != st {
				errs = append(errs, fmt.Errorf("lga %q filed under %q but references %q", l.Value, st, l.State))
			}
			lgas[location.WardKey(l.State, l.Value)] = true
			unique("lga", l.ID)
			name("lga", l.Value, l.Name)
		}
	}
	wards := map[string]bool{}
	for key, list := range ds.Wards {
		if !lgas[key] {
			errs = append(errs, fmt.Errorf("ward partition %q: unknown lga", key))
		}
		for _, w := range list {
			if location.WardKey(w.State, w.LGA) != key {
				errs = append(errs, fmt.Errorf("ward %q filed under %q but references %q/%q", w.Value, key, w.State, w.LGA))
			}
			wards[location.PollingKey(w.State, w.LGA, w.Value)] = true
			unique("ward", w.ID)
			name("ward", w.Value, w.Name)
		}
	}
	for st, part := range ds.PollingUnits {
		if !states[st] {
			errs = append(errs, fmt.Errorf("polling partition %q: unknown state", st))
		}
		for key, list := range part {
			if !wards[key] {
				errs = append(errs, fmt.Errorf("polling key %q: unknown ward", key))
			}
			for _, p := range list {
				if p.State != st || location.PollingKey(p.State, p.LGA, p.Ward) != key {
					errs = append(errs, fmt.Errorf("polling unit %q filed under %q/%q", p.Value, st, key))
				}
				name("polling unit", p.Value, p.Name)
				unique("polling unit", p.ID)
			}
		}
	}
	return errors.Join(errs...)
}
