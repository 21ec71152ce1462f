package players

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"regexp"
	"sync"

	"github.com/hashicorp/go-multierror"
	lru "github.com/hashicorp/golang-lru"
	"github.com/minio/sha256-simd"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/extremecarpaccio/carpaccio/game"
	"github.com/extremecarpaccio/carpaccio/logging"
)

var (
	ErrUnknownPlayer       = errors.New("unknown player")
	ErrInvalidRegistration = errors.New("invalid registration")
	ErrInvalidCredentials  = errors.New("invalid credentials")

	registeredMetric = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "carpaccio",
		Subsystem: "players",
		Name:      "registered",
		Help:      "Number of registered players",
	})

	onlineMetric = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "carpaccio",
		Subsystem: "players",
		Name:      "online",
		Help:      "Number of players online",
	})

	cashMetric = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "carpaccio",
		Subsystem: "players",
		Name:      "cash",
		Help:      "Cash of a player at the last checkpoint",
	}, []string{"username"})

	usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)
)

// Point is the cash of a player at a checkpointed tick.
type Point struct {
	Tick uint
	Cash float64
}

// Registration is a request to join the game or to update a player's URL.
type Registration struct {
	Username string
	Password string
	URL      string
}

func (r Registration) validate() error {
	var result *multierror.Error
	switch {
	case r.Username == "":
		result = multierror.Append(result, errors.New("username is required"))
	case !usernamePattern.MatchString(r.Username):
		result = multierror.Append(result, fmt.Errorf("username %q contains forbidden characters", r.Username))
	}
	if r.Password == "" {
		result = multierror.Append(result, errors.New("password is required"))
	}
	u, err := url.Parse(r.URL)
	switch {
	case r.URL == "":
		result = multierror.Append(result, errors.New("url is required"))
	case err != nil:
		result = multierror.Append(result, fmt.Errorf("parsing url: %w", err))
	case u.Scheme != "http" && u.Scheme != "https", u.Host == "":
		result = multierror.Append(result, fmt.Errorf("url %q is not an absolute http(s) url", r.URL))
	}
	if err := result.ErrorOrNil(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRegistration, err)
	}
	return nil
}

type player struct {
	username     string
	passwordHash []byte
	url          string
	cash         float64
	online       bool
	history      []Point
}

func (p *player) snapshot() game.Player {
	return game.Player{Username: p.username, URL: p.url, Cash: p.cash, Online: p.online}
}

func (p *player) record() playerRecord {
	return playerRecord{
		Username:     p.username,
		PasswordHash: p.passwordHash,
		URL:          p.url,
		Cash:         p.cash,
		Online:       p.online,
	}
}

// Registry holds the players, their balances and cash histories.
// It is safe for concurrent use.
type Registry struct {
	mu             sync.RWMutex
	players        map[string]*player
	lastCheckpoint uint

	db        *database
	histories *lru.Cache
}

type newRegistryOptions struct {
	historyCacheSize int
}

type newRegistryOptionFunc func(*newRegistryOptions)

// WithHistoryCacheSize sets how many sampled histories are kept in memory.
func WithHistoryCacheSize(size int) newRegistryOptionFunc {
	return func(opts *newRegistryOptions) {
		opts.historyCacheSize = size
	}
}

// New opens the registry stored in dbdir and loads the players from it.
func New(ctx context.Context, dbdir string, opts ...newRegistryOptionFunc) (*Registry, error) {
	options := newRegistryOptions{historyCacheSize: 16}
	for _, opt := range opts {
		opt(&options)
	}

	db, err := newDatabase(filepath.Join(dbdir, "players"))
	if err != nil {
		return nil, fmt.Errorf("opening players database: %w", err)
	}
	histories, err := lru.New(options.historyCacheSize)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating history cache: %w", err)
	}

	r := &Registry{
		players:   make(map[string]*player),
		db:        db,
		histories: histories,
	}
	if err := r.load(); err != nil {
		db.Close()
		return nil, fmt.Errorf("loading players: %w", err)
	}
	logging.FromContext(ctx).Info("loaded players",
		zap.Int("players", len(r.players)),
		zap.Uint("last_checkpoint", r.lastCheckpoint),
	)
	return r, nil
}

func (r *Registry) load() error {
	records, err := r.db.Players()
	if err != nil {
		return err
	}
	histories, err := r.db.Histories()
	if err != nil {
		return err
	}
	r.lastCheckpoint, err = r.db.LastCheckpoint()
	if err != nil {
		return err
	}

	online := 0
	for _, rec := range records {
		r.players[rec.Username] = &player{
			username:     rec.Username,
			passwordHash: rec.PasswordHash,
			url:          rec.URL,
			cash:         rec.Cash,
			online:       rec.Online,
			history:      histories[rec.Username],
		}
		if rec.Online {
			online++
		}
	}
	registeredMetric.Set(float64(len(r.players)))
	onlineMetric.Set(float64(online))
	return nil
}

func (r *Registry) Close() error {
	return r.db.Close()
}

func hashPassword(username, password string) []byte {
	sum := sha256.Sum256([]byte(username + ":" + password))
	return sum[:]
}

// Register adds a new player, or updates the URL of an existing one when the
// password matches. It reports whether a new player was created.
func (r *Registry) Register(ctx context.Context, reg Registration) (bool, error) {
	if err := reg.validate(); err != nil {
		return false, err
	}
	logger := logging.FromContext(ctx).With(zap.String("username", reg.Username))
	hash := hashPassword(reg.Username, reg.Password)

	r.mu.Lock()
	defer r.mu.Unlock()

	p, exists := r.players[reg.Username]
	if exists {
		if subtle.ConstantTimeCompare(hash, p.passwordHash) != 1 {
			return false, ErrInvalidCredentials
		}
		updated := *p
		updated.url = reg.URL
		if err := r.db.SavePlayer(updated.record()); err != nil {
			return false, err
		}
		p.url = reg.URL
		logger.Info("player url updated", zap.String("url", reg.URL))
		return false, nil
	}

	p = &player{username: reg.Username, passwordHash: hash, url: reg.URL}
	if err := r.db.SavePlayer(p.record()); err != nil {
		return false, err
	}
	r.players[reg.Username] = p
	registeredMetric.Inc()
	logger.Info("player registered", zap.String("url", reg.URL))
	return true, nil
}

// All returns a snapshot of every player, sorted by username.
func (r *Registry) All() []game.Player {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := maps.Keys(r.players)
	slices.Sort(names)
	all := make([]game.Player, 0, len(names))
	for _, name := range names {
		all = append(all, r.players[name].snapshot())
	}
	return all
}

func (r *Registry) Get(username string) (game.Player, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.players[username]
	if !ok {
		return game.Player{}, fmt.Errorf("%w: %s", ErrUnknownPlayer, username)
	}
	return p.snapshot(), nil
}

func (r *Registry) AddCash(username string, delta float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.players[username]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPlayer, username)
	}
	p.cash += delta
	return nil
}

func (r *Registry) MarkOnline(username string, online bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.players[username]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPlayer, username)
	}
	if p.online == online {
		return nil
	}
	p.online = online
	if online {
		onlineMetric.Inc()
	} else {
		onlineMetric.Dec()
	}
	return nil
}

// SaveState persists the players and a history point per player for the tick.
func (r *Registry) SaveState(ctx context.Context, tick uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	records := make([]playerRecord, 0, len(r.players))
	for _, p := range r.players {
		records = append(records, p.record())
	}
	if err := r.db.SaveCheckpoint(tick, records); err != nil {
		return err
	}
	for _, p := range r.players {
		p.history = append(p.history, Point{Tick: tick, Cash: p.cash})
		cashMetric.WithLabelValues(p.username).Set(p.cash)
	}
	r.lastCheckpoint = tick
	logging.FromContext(ctx).Debug("checkpoint saved", zap.Uint("tick", tick), zap.Int("players", len(records)))
	return nil
}

func (r *Registry) LastCheckpoint() uint {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastCheckpoint
}

func (r *Registry) History(username string) ([]Point, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.players[username]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPlayer, username)
	}
	return slices.Clone(p.history), nil
}

// Players are never removed, so their count tells registrations apart.
type historyCacheKey struct {
	chunk   int
	tick    uint
	players int
}

// CashHistories samples the cash history of every player, keeping one point
// out of chunk and always the latest one.
// The returned map is shared between callers and must not be modified.
func (r *Registry) CashHistories(chunk int) map[string][]float64 {
	if chunk < 1 {
		chunk = 1
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	key := historyCacheKey{chunk: chunk, tick: r.lastCheckpoint, players: len(r.players)}
	if cached, ok := r.histories.Get(key); ok {
		return cached.(map[string][]float64)
	}

	sampled := make(map[string][]float64, len(r.players))
	for name, p := range r.players {
		sampled[name] = sample(p.history, chunk)
	}
	r.histories.Add(key, sampled)
	return sampled
}

func sample(history []Point, chunk int) []float64 {
	samples := make([]float64, 0, len(history)/chunk+1)
	for i := 0; i < len(history); i += chunk {
		samples = append(samples, history[i].Cash)
	}
	if n := len(history); n > 0 && (n-1)%chunk != 0 {
		samples = append(samples, history[n-1].Cash)
	}
	return samples
}
