package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the medisearch service
type Config struct {
	General   GeneralConfig   `mapstructure:"general"`
	Server    ServerConfig    `mapstructure:"server"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Sources   SourcesConfig   `mapstructure:"sources"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// GeneralConfig contains general application settings
type GeneralConfig struct {
	Debug          bool          `mapstructure:"debug"`
	LogLevel       string        `mapstructure:"log_level"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	// SourceCallTimeout bounds one adapter invocation inside the
	// aggregator; it sits just above the per-source HTTP timeouts.
	SourceCallTimeout time.Duration `mapstructure:"source_call_timeout"`
	MaxConcurrent     int           `mapstructure:"max_concurrent"`
	HistoryBudget     int           `mapstructure:"history_budget"` // tokens of history passed to the LLM
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Address     string   `mapstructure:"address"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

// LLMConfig contains the OpenAI-compatible provider configuration
type LLMConfig struct {
	APIKey            string        `mapstructure:"api_key"`
	BaseURL           string        `mapstructure:"base_url"`
	CompletionModel   string        `mapstructure:"completion_model"`
	Temperature       float64       `mapstructure:"temperature"`
	MaxTokens         int           `mapstructure:"max_tokens"`
	ClassifyTimeout   time.Duration `mapstructure:"classify_timeout"`
	SynthesizeTimeout time.Duration `mapstructure:"synthesize_timeout"`
}

func (l LLMConfig) Validate() error {
	if strings.TrimSpace(l.APIKey) == "" {
		return fmt.Errorf("llm.api_key is required")
	}
	if strings.TrimSpace(l.CompletionModel) == "" {
		return fmt.Errorf("llm.completion_model is required")
	}
	return nil
}

// SourceConfig is the common shape of one upstream data source.
type SourceConfig struct {
	Endpoint   string        `mapstructure:"endpoint"`
	APIKey     string        `mapstructure:"api_key"`
	MaxResults int           `mapstructure:"max_results"`
	Timeout    time.Duration `mapstructure:"timeout"`
	Retries    int           `mapstructure:"retries"`
}

// ExpressionConfig configures the expression-study sources (GEO and
// ArrayExpress share the trigger-word and relevance policy).
type ExpressionConfig struct {
	GEO          SourceConfig `mapstructure:"geo"`
	ArrayExpress SourceConfig `mapstructure:"arrayexpress"`
	// TriggerWords make the expression sources eligible even without
	// protein/gene keywords when one appears in the raw query.
	TriggerWords []string `mapstructure:"trigger_words"`
	// RelevanceKeywords gate which studies are accepted; a study mentioning
	// none of them is dropped.
	RelevanceKeywords []string `mapstructure:"relevance_keywords"`
}

// SourcesConfig contains upstream biomedical source configurations
type SourcesConfig struct {
	PubMed       SourceConfig     `mapstructure:"pubmed"`
	Trials       SourceConfig     `mapstructure:"trials"`
	Ensembl      SourceConfig     `mapstructure:"ensembl"`
	UniProt      SourceConfig     `mapstructure:"uniprot"`
	ProteinAtlas SourceConfig     `mapstructure:"protein_atlas"`
	Expression   ExpressionConfig `mapstructure:"expression"`
	GenBank      SourceConfig     `mapstructure:"genbank"`
	// DefaultSpecies is used when the classifier does not extract one.
	DefaultSpecies string `mapstructure:"default_species"`
	// TermAliases maps normalized surface forms onto canonical terms.
	TermAliases map[string]string `mapstructure:"term_aliases"`
}

// StorageConfig contains session and persistence settings
type StorageConfig struct {
	HistoryBackend string         `mapstructure:"history_backend"` // inmemory or redis
	SessionTTL     time.Duration  `mapstructure:"session_ttl"`
	Redis          RedisConfig    `mapstructure:"redis"`
	Postgres       PostgresConfig `mapstructure:"postgres"`
}

func (s StorageConfig) Validate() error {
	switch s.HistoryBackend {
	case "inmemory":
	case "redis":
		if err := s.Redis.Validate(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("storage.history_backend must be inmemory or redis, got %q", s.HistoryBackend)
	}
	return nil
}

// RedisConfig contains Redis connection settings
type RedisConfig struct {
	Host     string        `mapstructure:"host"`
	Port     string        `mapstructure:"port"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

func (r RedisConfig) Validate() error {
	if strings.TrimSpace(r.Host) == "" {
		return fmt.Errorf("storage.redis.host required")
	}
	if strings.TrimSpace(r.Port) == "" {
		return fmt.Errorf("storage.redis.port required")
	}
	return nil
}

// PostgresConfig contains the optional chat-log database settings. An empty
// URL disables persistence.
type PostgresConfig struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// TelemetryConfig contains metrics settings
type TelemetryConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
}

// LoadConfig loads config from file and MEDISEARCH_* environment variables
func LoadConfig(path string) *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("json")

	viper.SetDefault("general.log_level", "info")
	viper.SetDefault("general.request_timeout", "90s")
	viper.SetDefault("general.source_call_timeout", "9s")
	viper.SetDefault("general.max_concurrent", 8)
	viper.SetDefault("general.history_budget", 2000)

	viper.SetDefault("server.address", ":8080")
	viper.SetDefault("server.cors_origins", []string{"*"})

	viper.SetDefault("llm.base_url", "https://api.openai.com/v1")
	viper.SetDefault("llm.completion_model", "gpt-4o-mini")
	viper.SetDefault("llm.temperature", 0.7)
	viper.SetDefault("llm.max_tokens", 1000)
	viper.SetDefault("llm.classify_timeout", "30s")
	viper.SetDefault("llm.synthesize_timeout", "60s")

	viper.SetDefault("sources.default_species", "homo_sapiens")
	viper.SetDefault("sources.pubmed.endpoint", "https://eutils.ncbi.nlm.nih.gov/entrez/eutils")
	viper.SetDefault("sources.trials.endpoint", "https://clinicaltrials.gov/api/v2/studies")
	viper.SetDefault("sources.ensembl.endpoint", "https://rest.ensembl.org")
	viper.SetDefault("sources.uniprot.endpoint", "https://rest.uniprot.org/uniprotkb/search")
	viper.SetDefault("sources.protein_atlas.endpoint", "https://www.proteinatlas.org")
	viper.SetDefault("sources.expression.geo.endpoint", "https://eutils.ncbi.nlm.nih.gov/entrez/eutils")
	viper.SetDefault("sources.expression.arrayexpress.endpoint", "https://www.ebi.ac.uk/biostudies/api/v1")
	viper.SetDefault("sources.genbank.endpoint", "https://eutils.ncbi.nlm.nih.gov/entrez/eutils")
	viper.SetDefault("sources.expression.trigger_words", []string{"biomarker", "biomarkers", "study", "studies", "expression"})
	viper.SetDefault("sources.expression.relevance_keywords", []string{"alzheimer", "tau", "amyloid", "app", "mapt", "psen1", "psen2", "apoe"})
	for _, src := range []string{
		"pubmed", "trials", "ensembl", "uniprot", "protein_atlas",
		"expression.geo", "expression.arrayexpress", "genbank",
	} {
		viper.SetDefault("sources."+src+".max_results", 3)
		viper.SetDefault("sources."+src+".timeout", "8s")
		viper.SetDefault("sources."+src+".retries", 1)
	}

	viper.SetDefault("storage.history_backend", "inmemory")
	viper.SetDefault("storage.session_ttl", "2h")
	viper.SetDefault("storage.redis.host", "localhost")
	viper.SetDefault("storage.redis.port", "6379")
	viper.SetDefault("storage.redis.timeout", "5s")
	viper.SetDefault("storage.postgres.timeout", "5s")

	viper.SetDefault("telemetry.enabled", true)
	viper.SetDefault("telemetry.namespace", "medisearch")

	if path == "" {
		viper.AddConfigPath("./config")
		viper.AddConfigPath(".")
		exe, _ := os.Executable()
		exeDir := filepath.Dir(exe)
		viper.AddConfigPath(exeDir)
		viper.AddConfigPath(filepath.Join(exeDir, ".."))
	} else {
		viper.SetConfigFile(path)
	}

	viper.SetEnvPrefix("MEDISEARCH")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// AutomaticEnv only resolves keys viper already knows about, so keys
	// without a SetDefault above must be bound explicitly or env-only
	// deployments never see them.
	for _, key := range []string{
		"general.debug",
		"llm.api_key",
		"sources.pubmed.api_key",
		"sources.trials.api_key",
		"sources.ensembl.api_key",
		"sources.uniprot.api_key",
		"sources.protein_atlas.api_key",
		"sources.expression.geo.api_key",
		"sources.expression.arrayexpress.api_key",
		"sources.genbank.api_key",
		"storage.redis.password",
		"storage.redis.db",
		"storage.postgres.url",
	} {
		_ = viper.BindEnv(key)
	}

	// Config file is optional; env vars and defaults carry a bare deployment.
	_ = viper.ReadInConfig()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		panic(fmt.Errorf("fatal error config file: %w", err))
	}

	if err := config.LLM.Validate(); err != nil {
		panic(err)
	}
	if err := config.Storage.Validate(); err != nil {
		panic(err)
	}
	return &config
}
