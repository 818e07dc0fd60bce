// Package fault defines the error taxonomy shared by the siting stages.
package fault

import (
	"errors"
	"fmt"
	"math"
)

// ErrInsufficientInput labels a run that produced no feasible sites because a
// required collection or zone was empty. Stages never return it; they return
// empty results instead.
var ErrInsufficientInput = errors.New("insufficient input")

// InvalidParameter is a caller-contract violation such as a non-positive radius.
type InvalidParameter struct {
	Param string
	Value float64
}

func (e *InvalidParameter) Error() string {
	return fmt.Sprintf("invalid parameter %s: %v", e.Param, e.Value)
}

// NewInvalidParameter builds an InvalidParameter for param.
func NewInvalidParameter(param string, value float64) *InvalidParameter {
	return &InvalidParameter{Param: param, Value: value}
}

// IsInvalidParameter reports whether err (or any error in its chain) is an
// InvalidParameter.
func IsInvalidParameter(err error) bool {
	var ip *InvalidParameter
	return errors.As(err, &ip)
}

// GeometryFault wraps a GEOS failure on malformed input. FeatureID is empty
// when the fault concerns an aggregate (a union of the whole set).
type GeometryFault struct {
	Stage     string
	FeatureID string
	Err       error
}

func (e *GeometryFault) Error() string {
	if e.FeatureID == "" {
		return fmt.Sprintf("%s: geometry fault: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("%s: geometry fault on feature %s: %v", e.Stage, e.FeatureID, e.Err)
}

func (e *GeometryFault) Unwrap() error {
	return e.Err
}

// NewGeometryFault wraps err as a fault raised by stage on featureID.
func NewGeometryFault(stage, featureID string, err error) *GeometryFault {
	return &GeometryFault{Stage: stage, FeatureID: featureID, Err: err}
}

// IsGeometryFault reports whether err (or any error in its chain) is a GeometryFault.
func IsGeometryFault(err error) bool {
	var gf *GeometryFault
	return errors.As(err, &gf)
}

// CheckPositive returns an InvalidParameter unless v is a finite value > 0.
func CheckPositive(param string, v float64) error {
	if !(v > 0) || math.IsInf(v, 1) {
		return NewInvalidParameter(param, v)
	}
	return nil
}
