package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
)

type Driver interface {
	Exists() (bool, error)
	Write(config Config) error
	Read() (Config, error)
}

// Open picks the driver from the file extension and writes the defaults when
// the file does not exist yet.
func Open(filePath string) (*Store, error) {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".yaml", ".yml":
		return NewStore(NewYAML(filePath))
	case ".json":
		return NewStore(NewJSON(filePath))
	default:
		return nil, fmt.Errorf("unsupported config file extension: %s", filePath)
	}
}

func NewStore(driver Driver) (*Store, error) {
	exists, err := driver.Exists()
	if err != nil {
		return nil, err
	}
	if !exists {
		if err := driver.Write(Default()); err != nil {
			return nil, err
		}
	}

	return &Store{
		driver: driver,
	}, nil
}

type Store struct {
	mu     sync.Mutex
	driver Driver
}

func (p *Store) GetConfig() (Config, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.driver.Read()
}

func (p *Store) UpdateConfig(fn func(cfg Config) (Config, error)) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	cfg, err := p.driver.Read()
	if err != nil {
		return err
	}

	cfg, err = fn(cfg)
	if err != nil {
		return err
	}

	return p.driver.Write(cfg)
}

// Normalize fills generated fields and validates the result.
func Normalize(store *Store) (Config, error) {
	err := store.UpdateConfig(func(cfg Config) (Config, error) {
		if cfg.LocalUser.ID == "" {
			cfg.LocalUser.ID = uuid.NewString()
		}
		if cfg.Role == "" {
			cfg.Role = RoleHost
		}
		if cfg.Topics == nil {
			cfg.Topics = []string{}
		}
		return cfg, cfg.Validate()
	})
	if err != nil {
		return Config{}, err
	}

	return store.GetConfig()
}
