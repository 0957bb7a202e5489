package service

import (
	"github.com/ecoride/ecoride-core/internal/config"
)

const (
	defaultGramsPerSeat   = 1200
	defaultGramsPerCredit = 100
)

// CarbonEstimate is what one occupant of a completed ride is credited with.
type CarbonEstimate struct {
	GramsSaved int64
	Credits    int64
}

// CarbonService is the carbon policy applied at ride completion.
type CarbonService interface {
	Estimate(occupants int) CarbonEstimate
}

type carbonService struct {
	gramsPerSeat   int64
	gramsPerCredit int64
}

func NewCarbonService(cfg config.CarbonConfig) CarbonService {
	s := &carbonService{
		gramsPerSeat:   int64(cfg.GramsPerSeat),
		gramsPerCredit: int64(cfg.GramsPerCredit),
	}
	if s.gramsPerSeat < 0 {
		s.gramsPerSeat = defaultGramsPerSeat
	}
	if s.gramsPerCredit <= 0 {
		s.gramsPerCredit = defaultGramsPerCredit
	}
	return s
}

// Estimate splits the emissions avoided by sharing one car among n occupants:
// each saves gramsPerSeat*(n-1)/n. A solo ride saves nothing.
func (s *carbonService) Estimate(occupants int) CarbonEstimate {
	if occupants <= 1 {
		return CarbonEstimate{}
	}
	n := int64(occupants)
	grams := s.gramsPerSeat * (n - 1) / n
	return CarbonEstimate{
		GramsSaved: grams,
		Credits:    grams / s.gramsPerCredit,
	}
}
