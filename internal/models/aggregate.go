package models

import "agreepoll/internal/utils"

// Aggregate is a point-in-time count of votes by choice.
type Aggregate struct {
	Total  int64 `json:"total"`
	Agree  int64 `json:"agree"`
	Oppose int64 `json:"oppose"`
}

func (a Aggregate) AgreePercent() int {
	return utils.Percent(a.Agree, a.Total)
}

func (a Aggregate) OpposePercent() int {
	return utils.Percent(a.Oppose, a.Total)
}
