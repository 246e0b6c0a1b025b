/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	keyring "github.com/zalando/go-keyring"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	if cfg.Backend != BackendSQLite {
		t.Fatalf("default backend: %q", cfg.Backend)
	}
	if cfg.Table != "book" {
		t.Fatalf("default table: %q", cfg.Table)
	}
	if cfg.Postgres.Port != 5432 {
		t.Fatalf("default postgres port: %d", cfg.Postgres.Port)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg != Defaults() {
		t.Fatalf("missing file must yield defaults, got %+v", cfg)
	}
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `config_version: 1
backend: Postgres
postgres:
  host: db.internal
  database: inventory
logging:
  level: DEBUG
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Backend != BackendPostgres {
		t.Fatalf("backend not normalized: %q", cfg.Backend)
	}
	if cfg.Postgres.Host != "db.internal" || cfg.Postgres.Database != "inventory" {
		t.Fatalf("postgres fields not merged: %+v", cfg.Postgres)
	}
	// Fields absent from the file keep their defaults.
	if cfg.Postgres.Port != 5432 || cfg.Table != "book" {
		t.Fatalf("defaults lost in merge: %+v", cfg)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("log level not normalized: %q", cfg.Logging.Level)
	}
}

func TestLoadRejectsInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(":\tnot yaml"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestEnvOverridesWinOverFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("backend: sqlite\ntable: file_table\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(EnvBackend, "POSTGRES")
	t.Setenv(EnvTable, "env_table")
	t.Setenv(EnvPGPort, "6000")
	t.Setenv(EnvLogSource, "yes")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Backend != BackendPostgres {
		t.Fatalf("env backend override lost: %q", cfg.Backend)
	}
	if cfg.Table != "env_table" {
		t.Fatalf("env table override lost: %q", cfg.Table)
	}
	if cfg.Postgres.Port != 6000 {
		t.Fatalf("env port override lost: %d", cfg.Postgres.Port)
	}
	if !cfg.Logging.Source {
		t.Fatalf("env log source override lost")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Defaults()
	cfg.Backend = BackendPostgres
	cfg.Postgres.Host = "db.example.com"
	cfg.Postgres.Port = 5433

	if err := Save(cfg, path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != cfg {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, cfg)
	}
}

type fakeSecrets struct {
	values map[string]string
	err    error
}

func (f *fakeSecrets) Get(service, key string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	v, ok := f.values[service+"/"+key]
	if !ok {
		return "", keyring.ErrNotFound
	}
	return v, nil
}

func (f *fakeSecrets) Set(service, key, value string) error {
	f.values[service+"/"+key] = value
	return nil
}

func (f *fakeSecrets) Delete(service, key string) error {
	delete(f.values, service+"/"+key)
	return nil
}

func swapSecrets(t *testing.T, s SecretStore) {
	t.Helper()
	old := secrets
	secrets = s
	t.Cleanup(func() { secrets = old })
}

func TestPostgresPasswordPrefersEnv(t *testing.T) {
	swapSecrets(t, &fakeSecrets{values: map[string]string{
		keyringService + "/" + keyringPGKey: "from-keyring",
	}})
	t.Setenv(EnvPGPassword, "from-env")

	pw, err := PostgresPassword()
	if err != nil {
		t.Fatalf("PostgresPassword: %v", err)
	}
	if pw != "from-env" {
		t.Fatalf("expected env password, got %q", pw)
	}
}

func TestPostgresPasswordFallsBackToKeyring(t *testing.T) {
	swapSecrets(t, &fakeSecrets{values: map[string]string{
		keyringService + "/" + keyringPGKey: "from-keyring",
	}})
	t.Setenv(EnvPGPassword, "")

	pw, err := PostgresPassword()
	if err != nil {
		t.Fatalf("PostgresPassword: %v", err)
	}
	if pw != "from-keyring" {
		t.Fatalf("expected keyring password, got %q", pw)
	}
}

func TestPostgresPasswordAbsentIsEmptyNotError(t *testing.T) {
	swapSecrets(t, &fakeSecrets{values: map[string]string{}})
	t.Setenv(EnvPGPassword, "")

	pw, err := PostgresPassword()
	if err != nil {
		t.Fatalf("absent password must not error: %v", err)
	}
	if pw != "" {
		t.Fatalf("expected empty password, got %q", pw)
	}
}

func TestPostgresPasswordSurfacesKeyringFailure(t *testing.T) {
	swapSecrets(t, &fakeSecrets{err: errors.New("locked")})
	t.Setenv(EnvPGPassword, "")

	if _, err := PostgresPassword(); err == nil {
		t.Fatalf("expected keyring failure to surface")
	}
}

func TestStorePostgresPassword(t *testing.T) {
	fs := &fakeSecrets{values: map[string]string{}}
	swapSecrets(t, fs)

	if err := StorePostgresPassword("s3cret"); err != nil {
		t.Fatalf("store: %v", err)
	}
	if fs.values[keyringService+"/"+keyringPGKey] != "s3cret" {
		t.Fatalf("password not stored: %+v", fs.values)
	}
	// Blank clears the entry.
	if err := StorePostgresPassword("  "); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, ok := fs.values[keyringService+"/"+keyringPGKey]; ok {
		t.Fatalf("blank password must delete the entry")
	}
}
