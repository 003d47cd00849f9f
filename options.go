package carbon

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/jonboulle/clockwork"
	opentracing "github.com/opentracing/opentracing-go"
	_metrics "github.com/rcrowley/go-metrics"
	"gopkg.in/yaml.v3"

	"github.com/mixpanel/carbon/encoding"
	"github.com/mixpanel/carbon/logging"
	"github.com/mixpanel/carbon/obserr"
	"github.com/mixpanel/carbon/transport"
)

// Options configures a Client. The flag tags bind it to a go-flags parser and the yaml
// tags to a config file (see ParseOptionsFile). The encoding switches are negative so
// the zero value keeps the library defaults: UTC timestamps, sanitized and lowercased
// names.
type Options struct {
	Address   string `long:"carbon.address" description:"Carbon host, host:port, [v6]:port or IP literal" default:"127.0.0.1" yaml:"address"`
	Port      int    `long:"carbon.port" description:"Port to use instead of the one in the address (default 2003)" yaml:"port"`
	Prefix    string `long:"carbon.prefix" description:"Prefix prepended to every metric path" yaml:"prefix"`
	Transport string `long:"carbon.transport" description:"Transport to deliver lines with" default:"tcp" choice:"tcp" choice:"udp" yaml:"transport"`

	NoUTC        bool `long:"carbon.no-utc" description:"Encode local wall clock time instead of converting timestamps to UTC" yaml:"no_utc"`
	NoSanitize   bool `long:"carbon.no-sanitize" description:"Send metric names exactly as given" yaml:"no_sanitize"`
	KeepCase     bool `long:"carbon.keep-case" description:"Do not lowercase metric names" yaml:"keep_case"`
	SanitizeLine bool `long:"carbon.sanitize-line" description:"Sanitize the whole line, value and timestamp included" yaml:"sanitize_line"`

	DialTimeout  time.Duration `long:"carbon.dial-timeout" description:"Connect timeout, 0 leaves it to the OS" yaml:"dial_timeout"`
	WriteTimeout time.Duration `long:"carbon.write-timeout" description:"Per line write timeout, 0 leaves it to the OS" yaml:"write_timeout"`

	LogLevel  string `long:"carbon.log-level" description:"NEVER, DEBUG, INFO, WARN, ERROR or CRITICAL" default:"WARN" yaml:"log_level"`
	LogFormat string `long:"carbon.log-format" description:"Format of log output" default:"text" choice:"text" choice:"json" yaml:"log_format"`

	// Logger overrides LogLevel and LogFormat. Without either, nothing is logged.
	Logger logging.Logger `no-flag:"true" yaml:"-"`
	// Resolver defaults to transport.DNSResolver.
	Resolver transport.Resolver `no-flag:"true" yaml:"-"`
	// Registry receives the connection stats. Defaults to a private registry.
	Registry _metrics.Registry `no-flag:"true" yaml:"-"`
	// Tracer defaults to opentracing.GlobalTracer().
	Tracer opentracing.Tracer `no-flag:"true" yaml:"-"`
	// Clock supplies the time for sends without a timestamp.
	Clock clockwork.Clock `no-flag:"true" yaml:"-"`
}

// EncodingOptions translates the switches into encoding.Options.
func (o Options) EncodingOptions() encoding.Options {
	opts := encoding.Options{
		ConvertToUTC: !o.NoUTC,
		Sanitize:     !o.NoSanitize,
		Lowercase:    !o.KeepCase,
		Scope:        encoding.ScopeNames,
	}
	if o.SanitizeLine {
		opts.Scope = encoding.ScopeLine
	}
	return opts
}

// Validate checks everything that can be checked without touching the network.
func (o Options) Validate() error {
	if _, _, err := transport.ParseEndpoint(o.Address); err != nil {
		return err
	}
	if err := o.checkPrefix(); err != nil {
		return err
	}
	if o.Port < 0 || o.Port > 65535 {
		return obserr.Kind(obserr.ErrInvalidConfiguration, "port out of range").Set("port", o.Port)
	}
	if _, err := transport.ParseMode(o.Transport); err != nil {
		return err
	}
	if o.DialTimeout < 0 || o.WriteTimeout < 0 {
		return obserr.Kind(obserr.ErrInvalidConfiguration, "negative timeout").
			Set("dial_timeout", o.DialTimeout, "write_timeout", o.WriteTimeout)
	}
	if o.Logger == nil && o.LogLevel != "" {
		if _, err := logging.New(o.LogLevel, o.LogFormat, io.Discard); err != nil {
			return err
		}
	}
	return nil
}

func (o Options) checkPrefix() error {
	if err := encoding.CheckName(o.Prefix); err != nil {
		return obserr.Kind(obserr.ErrInvalidConfiguration, "line break in prefix").Set("prefix", o.Prefix)
	}
	return nil
}

// endpoint resolves the configured address, applying Port when set.
func (o Options) endpoint(ctx context.Context) (transport.Endpoint, error) {
	host, port, err := transport.ParseEndpoint(o.Address)
	if err != nil {
		return transport.Endpoint{}, err
	}
	if o.Port != 0 {
		port = o.Port
	}
	return transport.ResolveHostPort(ctx, o.Resolver, host, port)
}

func (o Options) logger() (logging.Logger, error) {
	if o.Logger != nil {
		return o.Logger, nil
	}
	if o.LogLevel == "" {
		return logging.Null, nil
	}
	return logging.New(o.LogLevel, o.LogFormat, os.Stderr)
}

func (o Options) tracer() opentracing.Tracer {
	if o.Tracer != nil {
		return o.Tracer
	}
	return opentracing.GlobalTracer()
}

// ParseOptionsFile reads Options from a YAML file. Unknown keys are rejected.
func ParseOptionsFile(path string) (Options, error) {
	f, err := os.Open(path)
	if err != nil {
		return Options{}, obserr.Kind(obserr.ErrInvalidConfiguration, err).Set("path", path)
	}
	defer f.Close()

	var opts Options
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&opts); err != nil && err != io.EOF {
		return Options{}, obserr.Kind(obserr.ErrInvalidConfiguration, err).Set("path", path)
	}
	if err := opts.Validate(); err != nil {
		return Options{}, obserr.New(err).Set("path", path)
	}
	return opts, nil
}
