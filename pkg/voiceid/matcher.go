package voiceid

import (
	"math"
)

// MatchResult is the outcome of comparing one embedding against profiles.
type MatchResult struct {
	// Known reports whether Nearest is within the threshold.
	Known bool `json:"known" yaml:"known"`

	// Speaker is the matched profile name. Empty when Known is false.
	Speaker string `json:"speaker,omitempty" yaml:"speaker,omitempty"`

	// Nearest is the closest profile name, even when it was rejected.
	// Empty when no profile was compared.
	Nearest string `json:"nearest,omitempty" yaml:"nearest,omitempty"`

	// Distance is the cosine distance to Nearest, +Inf when no profile
	// was compared.
	Distance float64 `json:"-" yaml:"-"`
}

// Label returns Speaker for a known result and UnknownToken otherwise.
func (r MatchResult) Label() string {
	if r.Known {
		return r.Speaker
	}
	return UnknownToken
}

// unknown is the result when no comparison was possible.
func unknown() MatchResult {
	return MatchResult{Distance: math.Inf(1)}
}

// CosineDistance returns 1 - cos(a, b), in [0, 2]. A zero vector has no
// direction, so its distance to anything is 1.
func CosineDistance(a, b Embedding) (float64, error) {
	if len(a) != len(b) {
		return 0, dimensionError(len(a), len(b))
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 1, nil
	}
	cos := dot / (math.Sqrt(na) * math.Sqrt(nb))
	cos = max(-1, min(1, cos))
	return 1 - cos, nil
}

// Match finds the profile closest to candidate.
//
// Profiles are scanned in the given order and a profile replaces the current
// best only when its distance is strictly smaller, so on equal distances the
// earliest profile wins. With no profiles Match returns an unknown result
// without computing anything. The nearest profile is accepted when its
// distance is strictly below threshold.
func Match(candidate Embedding, profiles []Profile, threshold float64) (MatchResult, error) {
	if len(profiles) == 0 {
		return unknown(), nil
	}

	best := -1
	bestDist := math.Inf(1)
	for i, p := range profiles {
		d, err := CosineDistance(candidate, p.Embedding)
		if err != nil {
			return MatchResult{}, err
		}
		if d < bestDist {
			best, bestDist = i, d
		}
	}

	if best < 0 {
		// Every distance was NaN (non-finite input).
		return unknown(), nil
	}

	r := MatchResult{Nearest: profiles[best].Name, Distance: bestDist}
	if bestDist < threshold {
		r.Known = true
		r.Speaker = profiles[best].Name
	}
	return r, nil
}
