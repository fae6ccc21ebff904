package location

import "context"

// 占位选项文案：首项永远为 value 为空的提示项
const (
	PlaceholderState       = "Select State"
	PlaceholderStateFirst  = "Select State First"
	PlaceholderLGA         = "Select LGA"
	PlaceholderLGAFirst    = "Select LGA First"
	PlaceholderWard        = "Select Ward"
	PlaceholderWardFirst   = "Select Ward First"
	PlaceholderPollingUnit = "Select Polling Unit"
)

func placeholder(label string) []Option { return []Option{{Label: label, Value: ""}} }

func project[T any](label string, items []T, fn func(T) Option) []Option {
	out := make([]Option, 0, len(items)+1)
	out = append(out, Option{Label: label, Value: ""})
	for _, it := range items {
		out = append(out, fn(it))
	}
	return out
}

// FormattedStates：州下拉选项；州列表不可用时返回错误，前端应禁用依赖字段
func (s *Service) FormattedStates(ctx context.Context) ([]Option, error) {
	st, err := s.States(ctx)
	if err != nil {
		return nil, err
	}
	return project(PlaceholderState, st, func(v State) Option { return Option{Label: v.Name, Value: v.Value} }), nil
}

func (s *Service) FormattedLGAs(ctx context.Context, state string) ([]Option, error) {
	if state == "" {
		return placeholder(PlaceholderStateFirst), nil
	}
	list, err := s.LGAsForState(ctx, state)
	if err != nil {
		return nil, err
	}
	return project(PlaceholderLGA, list, func(v LGA) Option { return Option{Label: v.Name, Value: v.Value} }), nil
}

func (s *Service) FormattedWards(ctx context.Context, state, lga string) ([]Option, error) {
	if state == "" || lga == "" {
		return placeholder(PlaceholderLGAFirst), nil
	}
	list, err := s.WardsForLGA(ctx, state, lga)
	if err != nil {
		return nil, err
	}
	return project(PlaceholderWard, list, func(v Ward) Option { return Option{Label: v.Name, Value: v.Value} }), nil
}

func (s *Service) FormattedPollingUnits(ctx context.Context, state, lga, ward string) ([]Option, error) {
	if state == "" || lga == "" || ward == "" {
		return placeholder(PlaceholderWardFirst), nil
	}
	list, err := s.PollingUnitsForWard(ctx, state, lga, ward)
	if err != nil {
		return nil, err
	}
	return project(PlaceholderPollingUnit, list, func(v PollingUnit) Option { return Option{Label: v.Name, Value: v.Value} }), nil
}
