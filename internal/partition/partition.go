package partition

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"ng-locations/internal/location"
)

// 文档注释：分区结果（全部在内存中构建完成后才允许落盘）
// 约束：PollingUnits 按州分区，每个州一个资源文件。
type Dataset struct {
	States       []location.State
	LGAs         location.LGAPartition
	Wards        location.WardPartition
	PollingUnits map[string]location.PollingPartition
}

func sortByName[T any](items []T, name, value func(T) string) {
	slices.SortStableFunc(items, func(a, b T) int {
		if c := cmp.Compare(name(a), name(b)); c != 0 {
			return c
		}
		return cmp.Compare(value(a), value(b))
	})
}

// 文档注释：构建分区
// 背景：对相同输入确定且幂等；标识经 NormalizeSlug 归一，名称由 FormatName 派生，每层按名称排序。
// 约束：空标识、同级重复、组合键冲突均视为源数据错误并中止。
func Build(src []SourceState) (*Dataset, error) {
	ds := &Dataset{
		States:       make([]location.State, 0, len(src)),
		LGAs:         location.LGAPartition{},
		Wards:        location.WardPartition{},
		PollingUnits: map[string]location.PollingPartition{},
	}
	seenStates := map[string]bool{}
	// 选区 id 与投票站分区键相同，需在整个数据集内唯一，不仅限于单个州
	seenPolling := map[string]bool{}
	for si, ss := range src {
		st := location.NormalizeSlug(ss.ident())
		if st == "" {
			return nil, fmt.Errorf("state #%d: empty identifier", si+1)
		}
		if strings.ContainsAny(st, `/\`) {
			return nil, fmt.Errorf("state %q: path separator in identifier", st)
		}
		if seenStates[st] {
			return nil, fmt.Errorf("state %q: duplicate", st)
		}
		seenStates[st] = true
		ds.States = append(ds.States, location.State{ID: st, Name: location.FormatName(st), Value: st})

		lgas := make([]location.LGA, 0, len(ss.LGAs))
		polling := location.PollingPartition{}
		seenLGAs := map[string]bool{}
		for li, sl := range ss.LGAs {
			lg := location.NormalizeSlug(sl.Name)
			if lg == "" {
				return nil, fmt.Errorf("state %q lga #%d: empty identifier", st, li+1)
			}
			if seenLGAs[lg] {
				return nil, fmt.Errorf("state %q lga %q: duplicate", st, lg)
			}
			seenLGAs[lg] = true
			wk := location.WardKey(st, lg)
			if _, ok := ds.Wards[wk]; ok {
				return nil, fmt.Errorf("state %q lga %q: ward key %q collides with another lga", st, lg, wk)
			}
			lgas = append(lgas, location.LGA{ID: wk, Name: location.FormatName(lg), Value: lg, State: st})

			wards := make([]location.Ward, 0, len(sl.Wards))
			seenWards := map[string]bool{}
			for wi, sw := range sl.Wards {
				wd := location.NormalizeSlug(sw.Name)
				if wd == "" {
					return nil, fmt.Errorf("ward %q #%d: empty identifier", wk, wi+1)
				}
				if seenWards[wd] {
					return nil, fmt.Errorf("ward %q in %q: duplicate", wd, wk)
				}
				seenWards[wd] = true
				pk := location.PollingKey(st, lg, wd)
				if seenPolling[pk] {
					return nil, fmt.Errorf("ward %q in %q: polling key %q collides with another ward", wd, wk, pk)
				}
				seenPolling[pk] = true
				wards = append(wards, location.Ward{ID: pk, Name: location.FormatName(wd), Value: wd, LGA: lg, State: st})

				units := make([]location.PollingUnit, 0, len(sw.PollingUnits))
				for pi, sp := range sw.PollingUnits {
					pu := location.NormalizeSlug(sp.Name)
					if pu == "" {
						return nil, fmt.Errorf("polling unit #%d in %q: empty identifier", pi+1, pk)
					}
					units = append(units, location.PollingUnit{
						ID:    pk + "-" + strconv.Itoa(pi+1),
						Name:  location.FormatName(pu),
						Value: pu,
						Ward:  wd,
						LGA:   lg,
						State: st,
					})
				}
				sortByName(units, func(v location.PollingUnit) string { return v.Name }, func(v location.PollingUnit) string { return v.Value })
				polling[pk] = units
			}
			sortByName(wards, func(v location.Ward) string { return v.Name }, func(v location.Ward) string { return v.Value })
			ds.Wards[wk] = wards
		}
		sortByName(lgas, func(v location.LGA) string { return v.Name }, func(v location.LGA) string { return v.Value })
		ds.LGAs[st] = lgas
		ds.PollingUnits[st] = polling
	}
	sortByName(ds.States, func(v location.State) string { return v.Name }, func(v location.State) string { return v.Value })
	return ds, nil
}
