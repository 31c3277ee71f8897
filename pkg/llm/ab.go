package llm

import "hash/fnv"

// Variant names one arm of an A/B experiment.
type Variant string

const (
	VariantA Variant = "A"
	VariantB Variant = "B"
)

// ABConfig drives deterministic model/temperature selection per session.
type ABConfig struct {
	Enabled      bool
	ModelA       string
	ModelB       string
	TemperatureA float64
	TemperatureB float64
}

// PickVariant assigns a variant from the stable FNV-1a hash of
// sessionID||requestID. The same pair always lands on the same arm.
func PickVariant(sessionID, requestID string) Variant {
	h := fnv.New64a()
	h.Write([]byte(sessionID))
	h.Write([]byte(requestID))
	if h.Sum64()%2 == 0 {
		return VariantA
	}
	return VariantB
}

// Apply overrides model and temperature on req according to the selected
// variant. Disabled config or request-level overrides leave req untouched.
func (c ABConfig) Apply(req GenerateRequest, sessionID, requestID string) (GenerateRequest, Variant) {
	if !c.Enabled {
		return req, ""
	}
	v := PickVariant(sessionID, requestID)
	if req.Model == "" {
		if v == VariantA {
			req.Model = c.ModelA
		} else {
			req.Model = c.ModelB
		}
	}
	if !req.TemperatureSet {
		if v == VariantA {
			req.Temperature = ClampTemperature(c.TemperatureA)
		} else {
			req.Temperature = ClampTemperature(c.TemperatureB)
		}
		req.TemperatureSet = true
	}
	return req, v
}
