package config

import "testing"

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("MEDISEARCH_LLM_API_KEY", "test-key")

	cfg := LoadConfig("")

	if cfg.LLM.APIKey != "test-key" {
		t.Fatalf("api key from env = %q", cfg.LLM.APIKey)
	}
	if cfg.LLM.CompletionModel != "gpt-4o-mini" {
		t.Fatalf("completion model default = %q", cfg.LLM.CompletionModel)
	}
	if cfg.Sources.PubMed.Endpoint != "https://eutils.ncbi.nlm.nih.gov/entrez/eutils" {
		t.Fatalf("pubmed endpoint default = %q", cfg.Sources.PubMed.Endpoint)
	}
	if cfg.Sources.PubMed.MaxResults != 3 {
		t.Fatalf("pubmed max_results default = %d", cfg.Sources.PubMed.MaxResults)
	}
	if cfg.General.SourceCallTimeout.Seconds() >= 10 {
		t.Fatalf("source call timeout default too long: %s", cfg.General.SourceCallTimeout)
	}
	if cfg.Storage.HistoryBackend != "inmemory" {
		t.Fatalf("history backend default = %q", cfg.Storage.HistoryBackend)
	}
	if len(cfg.Sources.Expression.TriggerWords) == 0 {
		t.Fatalf("expected trigger word defaults")
	}
	if cfg.Sources.DefaultSpecies != "homo_sapiens" {
		t.Fatalf("default species = %q", cfg.Sources.DefaultSpecies)
	}
}

func TestLoadConfigEnvOnlyKeys(t *testing.T) {
	t.Setenv("MEDISEARCH_LLM_API_KEY", "env-key")
	t.Setenv("MEDISEARCH_STORAGE_POSTGRES_URL", "postgres://medisearch@localhost/medisearch?sslmode=disable")
	t.Setenv("MEDISEARCH_STORAGE_REDIS_PASSWORD", "env-secret")

	cfg := LoadConfig("")

	if cfg.LLM.APIKey != "env-key" {
		t.Fatalf("llm.api_key not taken from env: %q", cfg.LLM.APIKey)
	}
	if cfg.Storage.Postgres.URL != "postgres://medisearch@localhost/medisearch?sslmode=disable" {
		t.Fatalf("storage.postgres.url not taken from env: %q", cfg.Storage.Postgres.URL)
	}
	if cfg.Storage.Redis.Password != "env-secret" {
		t.Fatalf("storage.redis.password not taken from env: %q", cfg.Storage.Redis.Password)
	}
}

func TestLLMValidate(t *testing.T) {
	if err := (LLMConfig{CompletionModel: "gpt-4o-mini"}).Validate(); err == nil {
		t.Fatalf("missing api key must fail validation")
	}
	if err := (LLMConfig{APIKey: "k"}).Validate(); err == nil {
		t.Fatalf("missing model must fail validation")
	}
	if err := (LLMConfig{APIKey: "k", CompletionModel: "m"}).Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
}

func TestStorageValidate(t *testing.T) {
	if err := (StorageConfig{HistoryBackend: "inmemory"}).Validate(); err != nil {
		t.Fatalf("inmemory rejected: %v", err)
	}
	if err := (StorageConfig{HistoryBackend: "cassandra"}).Validate(); err == nil {
		t.Fatalf("unknown backend accepted")
	}
	if err := (StorageConfig{HistoryBackend: "redis"}).Validate(); err == nil {
		t.Fatalf("redis without host/port accepted")
	}
	redis := StorageConfig{HistoryBackend: "redis", Redis: RedisConfig{Host: "localhost", Port: "6379"}}
	if err := redis.Validate(); err != nil {
		t.Fatalf("valid redis config rejected: %v", err)
	}
}
