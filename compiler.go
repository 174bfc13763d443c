package stylec

import (
	"fmt"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	ignore "github.com/sabhiram/go-gitignore"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/yacobolo/stylec/internal/config"
	"github.com/yacobolo/stylec/internal/locate"
	"github.com/yacobolo/stylec/internal/module"
	"github.com/yacobolo/stylec/internal/style"
)

const minimizedCacheSize = 512

// sourceExtensions are the script extensions a style file may carry.
var sourceExtensions = []string{"ts", "tsx", "js", "jsx", "mts", "mjs", "cts", "cjs"}

// Compiler builds the CSS and minimized sources of one project.
type Compiler struct {
	root        string
	cfg         *config.Config
	log         *zap.Logger
	concurrency int
	styleFile   *regexp.Regexp

	bundler  *module.Bundler
	registry *module.Registry
	locator  *locate.Locator

	gitIgnore     *ignore.GitIgnore
	gitIgnoreOnce sync.Once

	locks     sync.Map // path -> *sync.Mutex
	minimized *lru.Cache[string, minimizedSource]

	mu       sync.RWMutex
	resolved *resolvedConfig
}

// resolvedConfig is the static config with define exports merged in, shared
// by every compile of one build.
type resolvedConfig struct {
	cfg         *config.Config
	parser      *style.Parser
	env         *module.Env
	known       map[string]bool
	configFiles map[string]bool
}

type minimizedSource struct {
	text string
	ok   bool
}

type options struct {
	log         *zap.Logger
	configPath  string
	flags       *pflag.FlagSet
	concurrency int
}

// Option configures a Compiler.
type Option func(*options)

// WithLogger sets the logger. The default discards everything.
func WithLogger(log *zap.Logger) Option {
	return func(o *options) { o.log = log }
}

// WithConfigPath loads the config from path instead of {root}/stylec.yaml.
func WithConfigPath(path string) Option {
	return func(o *options) { o.configPath = path }
}

// WithFlags applies explicitly set command-line flags over the config file.
func WithFlags(fs *pflag.FlagSet) Option {
	return func(o *options) { o.flags = fs }
}

// WithConcurrency bounds the number of files compiled at once.
func WithConcurrency(n int) Option {
	return func(o *options) { o.concurrency = n }
}

// New loads the project config under root and prepares a Compiler.
func New(root string, opts ...Option) (*Compiler, error) {
	o := options{log: zap.NewNop(), concurrency: runtime.NumCPU()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = zap.NewNop()
	}
	if o.concurrency < 1 {
		o.concurrency = 1
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving root: %w", err)
	}

	var loadOpts []config.Option
	if o.configPath != "" {
		loadOpts = append(loadOpts, config.WithPath(o.configPath))
	}
	if o.flags != nil {
		loadOpts = append(loadOpts, config.WithFlags(o.flags))
	}
	cfg, err := config.Load(abs, loadOpts...)
	if err != nil {
		return nil, err
	}

	minimized, err := lru.New[string, minimizedSource](minimizedCacheSize)
	if err != nil {
		return nil, err
	}

	c := &Compiler{
		root:        abs,
		cfg:         cfg,
		log:         o.log,
		concurrency: o.concurrency,
		styleFile:   styleFilePattern(cfg.Markers),
		bundler:     module.NewBundler(abs, module.WithExternal(cfg.External...), module.WithBundlerLogger(o.log)),
		registry:    module.NewRegistry(module.WithRegistryLogger(o.log)),
		locator:     locate.New(locate.WithBudget(cfg.RangeTimeout), locate.WithLogger(o.log)),
		minimized:   minimized,
	}
	return c, nil
}

// Root returns the absolute project root.
func (c *Compiler) Root() string { return c.root }

// Config returns the static project config.
func (c *Compiler) Config() *config.Config { return c.cfg }

// OutputDir returns the absolute output directory.
func (c *Compiler) OutputDir() string { return c.cfg.OutputPath() }

func styleFilePattern(markers []string) *regexp.Regexp {
	quoted := make([]string, len(markers))
	for i, m := range markers {
		quoted[i] = regexp.QuoteMeta(m)
	}
	return regexp.MustCompile(`^.+\.(` + strings.Join(quoted, "|") + `)\.(` + strings.Join(sourceExtensions, "|") + `)$`)
}

// resolve builds the shared compile state from cfg.
func resolve(cfg *config.Config, configFiles []string) (*resolvedConfig, error) {
	p, err := cfg.Parser()
	if err != nil {
		return nil, err
	}
	files := make(map[string]bool, len(configFiles))
	for _, f := range configFiles {
		files[f] = true
	}
	return &resolvedConfig{
		cfg:    cfg,
		parser: p,
		env: &module.Env{
			Variables:    cfg.Variables,
			Templates:    cfg.Templates,
			MediaQueries: cfg.MediaQueries,
		},
		known:       cfg.VariableNames(),
		configFiles: files,
	}, nil
}

func (c *Compiler) current() *resolvedConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.resolved
}

func (c *Compiler) setResolved(r *resolvedConfig) {
	c.mu.Lock()
	c.resolved = r
	c.mu.Unlock()
}

// lock serializes writers of one output path.
func (c *Compiler) lock(path string) func() {
	v, _ := c.locks.LoadOrStore(path, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}
