package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/schollz/progressbar/v3"

	"github.com/xhad/jarvis/internal/models"
	"github.com/xhad/jarvis/internal/types"
	"github.com/xhad/jarvis/pkg/chunker"
	cfgPkg "github.com/xhad/jarvis/pkg/config"
	"github.com/xhad/jarvis/pkg/extractor"
	"github.com/xhad/jarvis/pkg/llm"
	"github.com/xhad/jarvis/pkg/session"
	"github.com/xhad/jarvis/pkg/store"
	"github.com/xhad/jarvis/server"
)

type Flags struct {
	ConfigPath string
	OllamaURL  string
	DBUrl      string
	StoreType  string
	IndexName  string
	ChunkSize  int
	Overlap    int
	TopK       int
	ServeAddr  string
	Serve      bool
}

func main() {
	_ = godotenv.Load()

	flags := parseFlags()

	if err := run(flags, flag.Args()); err != nil {
		log.Fatal(err)
	}
}

func parseFlags() Flags {
	var flags Flags

	flag.StringVar(&flags.ConfigPath, "config", "", "Path to config file")
	flag.StringVar(&flags.OllamaURL, "ollama-url", "", "Ollama server URL")
	flag.StringVar(&flags.DBUrl, "db-url", "", "PostgreSQL connection string (pgvector store)")
	flag.StringVar(&flags.StoreType, "store", "", "Vector store backend: pinecone, pgvector or memory")
	flag.StringVar(&flags.IndexName, "index", "", "Vector index name")
	flag.IntVar(&flags.ChunkSize, "chunk-size", 0, "Words per chunk")
	flag.IntVar(&flags.Overlap, "overlap", 0, "Words shared between consecutive chunks")
	flag.IntVar(&flags.TopK, "top-k", 0, "Number of chunks retrieved per question")
	flag.BoolVar(&flags.Serve, "serve", false, "Run the HTTP/WebSocket server instead of the chat loop")
	flag.StringVar(&flags.ServeAddr, "addr", "", "Server listen address")
	flag.Parse()

	return flags
}

func loadConfig(flags Flags) (*cfgPkg.Config, error) {
	cfg, err := cfgPkg.LoadConfig(flags.ConfigPath)
	if err != nil {
		return nil, err
	}

	// Command line flags win over file and environment
	if flags.OllamaURL != "" {
		cfg.Embedder.BaseURL = flags.OllamaURL
	}
	if flags.DBUrl != "" {
		cfg.Store.URL = flags.DBUrl
	}
	if flags.StoreType != "" {
		cfg.Store.Type = flags.StoreType
	}
	if flags.IndexName != "" {
		cfg.Store.IndexName = flags.IndexName
	}
	if flags.ChunkSize != 0 {
		cfg.Chunker.Size = flags.ChunkSize
	}
	if flags.Overlap != 0 {
		cfg.Chunker.Overlap = flags.Overlap
	}
	if flags.TopK != 0 {
		cfg.Store.TopK = flags.TopK
	}
	if flags.ServeAddr != "" {
		cfg.Server.Addr = flags.ServeAddr
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		for _, e := range errs {
			color.Red("config: %v", e)
		}
		return nil, fmt.Errorf("invalid configuration")
	}

	return cfg, nil
}

func newVectorIndex(ctx context.Context, cfg *cfgPkg.Config) (types.VectorIndex, error) {
	switch cfg.Store.Type {
	case "pinecone":
		return store.NewPineconeWithConfig(ctx, store.PineconeConfig{
			APIKey:    cfg.Store.APIKey,
			IndexName: cfg.Store.IndexName,
			Dimension: cfg.Embedder.VectorDim,
			BatchSize: cfg.Store.BatchSize,
			Cloud:     cfg.Store.Cloud,
			Region:    cfg.Store.Region,
			RateLimit: cfg.Store.RateLimit,
			Timeout:   cfg.StoreTimeout(),
		})
	case "pgvector":
		return store.NewPgVectorWithConfig(ctx, store.PgVectorConfig{
			ConnString: cfg.Store.URL,
			TableName:  cfg.Store.TableName,
			VectorDim:  cfg.Embedder.VectorDim,
			BatchSize:  cfg.Store.BatchSize,
		})
	case "memory":
		return store.NewMemoryIndex(cfg.Embedder.VectorDim), nil
	default:
		return nil, fmt.Errorf("unknown store type: %s", cfg.Store.Type)
	}
}

func getProgressBar(total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription(color.BlueString(description)),
		progressbar.OptionSetItsString("chunks"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionFullWidth(),
		progressbar.OptionSetRenderBlankState(true),
	)
}

func getSpinner(description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(color.CyanString(description)),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetWidth(20),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetRenderBlankState(true),
	)
}

func run(flags Flags, files []string) error {
	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}

	ctx := context.Background()

	embedder, err := llm.NewEmbedderWithConfig(llm.EmbedderConfig{
		BaseURL:   cfg.Embedder.BaseURL,
		Model:     cfg.Embedder.Model,
		VectorDim: cfg.Embedder.VectorDim,
		Timeout:   cfg.EmbedderTimeout(),
	})
	if err != nil {
		return fmt.Errorf("failed to initialize embedder: %v", err)
	}

	generator, err := llm.NewGeneratorWithConfig(ctx, llm.GeneratorConfig{
		APIKey:      cfg.Generator.APIKey,
		Model:       cfg.Generator.Model,
		Temperature: cfg.Generator.Temperature,
		MaxTokens:   cfg.Generator.MaxTokens,
		Timeout:     cfg.GeneratorTimeout(),
	})
	if err != nil {
		return fmt.Errorf("failed to initialize generator: %v", err)
	}
	defer generator.Close()

	wordChunker, err := chunker.NewWithConfig(chunker.ChunkerConfig{
		Size:    cfg.Chunker.Size,
		Overlap: cfg.Chunker.Overlap,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize chunker: %v", err)
	}

	vectorIndex, err := newVectorIndex(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize vector store: %v", err)
	}
	defer vectorIndex.Close()

	var bar *progressbar.ProgressBar
	sess, err := session.NewWithConfig(session.SessionConfig{
		Extractor: extractor.New(),
		Chunker:   wordChunker,
		Embedder:  embedder,
		Index:     vectorIndex,
		Generator: generator,
		TopK:      cfg.Store.TopK,
		OnProgress: func(completed, total int) {
			if bar != nil {
				bar.ChangeMax(total)
				bar.Set(completed)
			}
		},
	})
	if err != nil {
		return err
	}

	// Ingest any files named on the command line before chatting
	if len(files) > 0 {
		total := 0
		for _, path := range files {
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("failed to read %s: %v", path, err)
			}

			bar = getProgressBar(-1, fmt.Sprintf(" Embedding %s...", path))
			n, err := sess.Ingest(ctx, []models.Document{{Name: path, Data: data}})
			bar.Finish()
			fmt.Print("\n")
			if err != nil {
				return fmt.Errorf("failed to ingest %s: %v", path, err)
			}
			total += n
		}
		bar = nil
		color.Green("✓ Uploaded %d file(s) (%d chunks)\n", len(files), total)
	}

	if flags.Serve {
		return server.New(cfg.Server.Addr, sess).Run()
	}

	return chatLoop(ctx, sess)
}

func chatLoop(ctx context.Context, sess *session.Session) error {
	color.Cyan("\nChat with your notes (type 'exit' to quit)")

	scanner := bufio.NewScanner(os.Stdin)
	userPrompt := color.New(color.FgGreen).PrintfFunc()
	assistantPrompt := color.New(color.FgCyan).PrintfFunc()

	for {
		userPrompt("\nYou: ")
		if !scanner.Scan() {
			break
		}

		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			continue
		}
		if strings.ToLower(question) == "exit" {
			break
		}

		spinner := getSpinner(" Thinking...")
		answer, err := sess.Ask(ctx, question)
		spinner.Finish()
		fmt.Print("\r")

		if err != nil {
			color.Red("Error: %v\n", err)
			continue
		}

		assistantPrompt("Jarvis: %s\n", answer)
	}

	return scanner.Err()
}
