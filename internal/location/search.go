package location

import (
	"context"
	"strings"
)

// 按名称做大小写不敏感的子串过滤；空查询返回全集
func filterByName[T any](items []T, q string, name func(T) string) []T {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return items
	}
	out := make([]T, 0, len(items))
	for _, it := range items {
		if strings.Contains(strings.ToLower(name(it)), q) {
			out = append(out, it)
		}
	}
	return out
}

func (s *Service) SearchStates(ctx context.Context, q string) ([]State, error) {
	st, err := s.States(ctx)
	if err != nil {
		return nil, err
	}
	return filterByName(st, q, func(v State) string { return v.Name }), nil
}

func (s *Service) SearchLGAs(ctx context.Context, state, q string) ([]LGA, error) {
	list, err := s.LGAsForState(ctx, state)
	if err != nil {
		return nil, err
	}
	return filterByName(list, q, func(v LGA) string { return v.Name }), nil
}

func (s *Service) SearchWards(ctx context.Context, state, lga, q string) ([]Ward, error) {
	list, err := s.WardsForLGA(ctx, state, lga)
	if err != nil {
		return nil, err
	}
	return filterByName(list, q, func(v Ward) string { return v.Name }), nil
}

func (s *Service) SearchPollingUnits(ctx context.Context, state, lga, ward, q string) ([]PollingUnit, error) {
	list, err := s.PollingUnitsForWard(ctx, state, lga, ward)
	if err != nil {
		return nil, err
	}
	return filterByName(list, q, func(v PollingUnit) string { return v.Name }), nil
}
