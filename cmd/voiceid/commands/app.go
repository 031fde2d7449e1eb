package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/spf13/cobra"

	"github.com/ridhamguptaprogramming-ops/JARVIS-voice-assistant/pkg/cli"
	"github.com/ridhamguptaprogramming-ops/JARVIS-voice-assistant/pkg/voiceid"
	"github.com/ridhamguptaprogramming-ops/JARVIS-voice-assistant/pkg/voiceid/profilestore"
)

// Device describes one microphone.
type Device struct {
	Index      int     `json:"index" yaml:"index"`
	Name       string  `json:"name" yaml:"name"`
	Channels   int     `json:"channels" yaml:"channels"`
	SampleRate float64 `json:"sample_rate" yaml:"sample_rate"`
	Default    bool    `json:"default" yaml:"default"`
}

// AudioBackend provides microphone access. The binary installs a PortAudio
// implementation; tests install fakes.
type AudioBackend interface {
	// Check returns nil when a default input device is usable.
	Check(ctx context.Context) error

	// Capturer returns a recorder capturing at sampleRate Hz.
	// 0 means the device default rate.
	Capturer(sampleRate int) voiceid.Capturer

	// Devices lists the available input devices.
	Devices() ([]Device, error)
}

var audioBackend AudioBackend

// SetAudioBackend installs the microphone implementation.
func SetAudioBackend(b AudioBackend) {
	audioBackend = b
}

// errNoAudioBackend is reported when the binary was built without audio.
var errNoAudioBackend = errors.New("no audio backend available in this build")

// session is the per-invocation state built from flags and the config file.
type session struct {
	cfg    *cli.Config
	format cli.OutputFormat
	logger *slog.Logger
	styles cli.Styles
	out    io.Writer
	errOut io.Writer
}

func newSession(cmd *cobra.Command) (*session, error) {
	path := configPath
	if path == "" {
		p, err := cli.DefaultConfigPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	cfg, err := cli.LoadConfig(path)
	if err != nil {
		return nil, err
	}
	format, err := cli.ParseFormat(formatOutput)
	if err != nil {
		return nil, err
	}
	logger, err := cli.NewLogger(cmd.ErrOrStderr(), cfg.LogLevel, verbose)
	if err != nil {
		return nil, err
	}
	return &session{
		cfg:    cfg,
		format: format,
		logger: logger,
		styles: cli.DefaultStyles,
		out:    cmd.OutOrStdout(),
		errOut: cmd.ErrOrStderr(),
	}, nil
}

// output writes a structured result, or text when the format is text.
func (s *session) output(result any, text string) error {
	if s.format.Structured() {
		return cli.Output(result, cli.OutputOptions{Format: s.format, Writer: s.out})
	}
	_, err := io.WriteString(s.out, text)
	return err
}

// openStore opens the configured profile store. Failures to reach the
// backend are reported as missing dependencies.
func (s *session) openStore(ctx context.Context) (profilestore.Store, error) {
	st, err := openStore(ctx, s.cfg, s.logger)
	if err != nil {
		return nil, &voiceid.DependencyError{Name: "store/" + s.cfg.Store.Backend, Err: err}
	}
	return st, nil
}

func openStore(ctx context.Context, cfg *cli.Config, logger *slog.Logger) (profilestore.Store, error) {
	switch cfg.Store.Backend {
	case cli.BackendDir:
		return profilestore.NewDir(cfg.StoreDir())
	case cli.BackendBadger:
		return profilestore.NewBadger(profilestore.BadgerOptions{
			Dir:    cfg.StoreDir(),
			Logger: logger,
		})
	case cli.BackendS3:
		client, err := newS3Client(ctx, cfg.Store)
		if err != nil {
			return nil, err
		}
		return profilestore.NewS3(client, cfg.Store.Bucket, cfg.Store.Prefix), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

func newS3Client(ctx context.Context, sc cli.StoreConfig) (*awss3.Client, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if sc.Region != "" {
		opts = append(opts, awsconfig.WithRegion(sc.Region))
	}
	switch {
	case sc.AccessKey != "" && sc.SecretKey != "":
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(sc.AccessKey, sc.SecretKey, ""),
		))
	case sc.AccessKey != "" || sc.SecretKey != "":
		return nil, errors.New("store.access_key and store.secret_key must be set together")
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	var s3Opts []func(*awss3.Options)
	if sc.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *awss3.Options) {
			o.BaseEndpoint = aws.String(sc.Endpoint)
			o.UsePathStyle = true
		})
	}
	return awss3.NewFromConfig(awsCfg, s3Opts...), nil
}

// engineOptions are per-command overrides of the config file.
type engineOptions struct {
	threshold float64
	prompt    func(sample, total int) string
}

// newEngine checks every capability an audio command needs, then builds
// the engine. The returned store must be closed by the caller.
func (s *session) newEngine(ctx context.Context, eo engineOptions) (*voiceid.Engine, profilestore.Store, error) {
	backend := audioBackend
	if backend == nil {
		return nil, nil, &voiceid.DependencyError{Name: "microphone", Err: errNoAudioBackend}
	}
	extractor := voiceid.NewExtractor()
	err := voiceid.CheckCapabilities(ctx,
		voiceid.Probe{Name: "microphone", Check: backend.Check},
		voiceid.ExtractorProbe(extractor),
	)
	if err != nil {
		return nil, nil, err
	}

	store, err := s.openStore(ctx)
	if err != nil {
		return nil, nil, err
	}

	threshold := s.cfg.Threshold
	if eo.threshold > 0 {
		threshold = eo.threshold
	}
	eng, err := voiceid.NewEngine(backend.Capturer(s.cfg.CaptureSampleRate), store, voiceid.Options{
		Extractor:     extractor,
		Threshold:     threshold,
		Duration:      s.cfg.RecordDuration(),
		BeforeCapture: s.beforeCapture(eo.prompt),
		Logger:        s.logger,
	})
	if err != nil {
		store.Close()
		return nil, nil, err
	}
	return eng, store, nil
}

// beforeCapture prints the prompt, waits the lead-in, then announces the
// recording on stderr.
func (s *session) beforeCapture(prompt func(sample, total int) string) func(ctx context.Context, sample, total int) error {
	lead := s.cfg.LeadIn()
	return func(ctx context.Context, sample, total int) error {
		if prompt != nil {
			s.styles.PrintInfo(s.errOut, "%s", prompt(sample, total))
		}
		if lead > 0 {
			t := time.NewTimer(lead)
			defer t.Stop()
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-t.C:
			}
		}
		s.styles.PrintInfo(s.errOut, "Beep! Recording...")
		return nil
	}
}

// warnSkipped reports unreadable stored records on stderr.
func (s *session) warnSkipped(skipped []profilestore.SkippedRecord) {
	for _, r := range skipped {
		s.styles.PrintWarning(s.errOut, "skipped %s: %v", r.Key, r.Err)
	}
}

// newStoreEngine builds an engine for commands that never record audio.
func newStoreEngine(store profilestore.Store, s *session) (*voiceid.Engine, error) {
	noMic := voiceid.CaptureFunc(func(context.Context, time.Duration) (voiceid.Waveform, error) {
		return voiceid.Waveform{}, errNoAudioBackend
	})
	return voiceid.NewEngine(noMic, store, voiceid.Options{
		Threshold: s.cfg.Threshold,
		Logger:    s.logger,
	})
}
