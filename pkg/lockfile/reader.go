package lockfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-logr/logr"
)

// Read loads the lockfile that belongs to the given
// configuration file. A missing lockfile is not an error,
// an empty one is returned instead.
func Read(ctx context.Context, cfgPath string) (*Lock, error) {
	log := logr.FromContextOrDiscard(ctx)
	lock, err := os.Open(Name(cfgPath))
	if err != nil {
		if os.IsNotExist(err) {
			log.V(1).Info("no lockfile found, starting a new one", "path", Name(cfgPath))
			return New(lockName(cfgPath)), nil
		}
		log.Error(err, "failed to open lockfile")
		return nil, err
	}
	defer lock.Close()
	// read the lockfile
	var lockFile Lock
	if err := json.NewDecoder(lock).Decode(&lockFile); err != nil {
		log.Error(err, "failed to read lockfile")
		return nil, err
	}
	if lockFile.LockfileVersion != LockfileVersion {
		return nil, fmt.Errorf("unsupported lockfile version: %d", lockFile.LockfileVersion)
	}
	if lockFile.Packages == nil {
		lockFile.Packages = map[string]Package{}
	}
	for k, v := range lockFile.Packages {
		v.Name = k
		lockFile.Packages[k] = v
	}
	return &lockFile, nil
}

// Write saves the lockfile next to the given configuration file.
func Write(ctx context.Context, cfgPath string, l *Lock) error {
	log := logr.FromContextOrDiscard(ctx)
	log.V(1).Info("exporting lockfile", "path", Name(cfgPath))

	f, err := os.Create(Name(cfgPath))
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "\t")
	return enc.Encode(l)
}

func Name(s string) string {
	return strings.TrimSuffix(s, filepath.Ext(s)) + "-lock.json"
}

func lockName(s string) string {
	return strings.TrimSuffix(filepath.Base(s), filepath.Ext(s))
}
