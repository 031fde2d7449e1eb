package voiceid

import (
	"context"
	"errors"
	"math"
)

// Probe checks that one required capability is usable.
type Probe struct {
	// Name is reported in DependencyError when Check fails.
	Name string

	// Check returns nil when the capability is available.
	Check func(ctx context.Context) error
}

// CheckCapabilities runs every probe and returns nil when all succeed.
// Otherwise it returns the failures joined together; each is a
// *DependencyError, so errors.Is(err, ErrDependencyMissing) holds.
func CheckCapabilities(ctx context.Context, probes ...Probe) error {
	var errs []error
	for _, p := range probes {
		if err := p.Check(ctx); err != nil {
			errs = append(errs, &DependencyError{Name: p.Name, Err: err})
		}
	}
	return errors.Join(errs...)
}

// ExtractorProbe verifies that fe produces a finite embedding of the
// expected dimension from a short synthetic tone.
func ExtractorProbe(fe FeatureExtractor) Probe {
	return Probe{
		Name: "feature-extractor",
		Check: func(context.Context) error {
			rate := fe.SampleRate()
			tone := make([]float32, rate/2)
			for i := range tone {
				tone[i] = float32(0.1 * math.Sin(2*math.Pi*440*float64(i)/float64(rate)))
			}
			emb, err := fe.Extract(Waveform{Samples: tone, SampleRate: rate})
			if err != nil {
				return err
			}
			if len(emb) != fe.Dimension() {
				return dimensionError(fe.Dimension(), len(emb))
			}
			return nil
		},
	}
}
