// One-shot import CLI: runs a single file through the same pipeline the
// API serves, then prints the activity log.
package main

import (
	"context"
	"flag"
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/rfmelo/gestorpme/internal/config"
	"github.com/rfmelo/gestorpme/internal/domain"
	"github.com/rfmelo/gestorpme/internal/extract"
	"github.com/rfmelo/gestorpme/internal/filestore"
	"github.com/rfmelo/gestorpme/internal/importer"
	"github.com/rfmelo/gestorpme/internal/logger"
	"github.com/rfmelo/gestorpme/internal/pipeline"
	"github.com/rfmelo/gestorpme/internal/store"
	"github.com/rfmelo/gestorpme/internal/store/local"
	"github.com/rfmelo/gestorpme/internal/store/postgres"
)

func main() {
	log := logger.New()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "csv":
		runCSV(log)
	case "ai":
		runAI(log)
	case "convert":
		runConvert(log)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Comando desconhecido: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("gestorpme import")
	fmt.Println("\nUso:")
	fmt.Println("  import <comando> [opções]")
	fmt.Println("\nComandos:")
	fmt.Println("  csv       Importa um arquivo CSV/XLSX localmente")
	fmt.Println("  ai        Extrai clientes e lançamentos de um documento via modelo")
	fmt.Println("  convert   Converte um documento em CSV via modelo e importa")
	fmt.Println("  help      Mostra esta mensagem")
	fmt.Println("\nExecute 'import <comando> -h' para as opções de cada comando.")
}

func runCSV(log zerolog.Logger) {
	fs := flag.NewFlagSet("csv", flag.ExitOnError)
	file := fs.String("file", "", "caminho do arquivo CSV/XLSX")
	kind := fs.String("kind", "transactions", "conteúdo do arquivo: clients ou transactions")
	polarity := fs.String("polarity", "auto", "polaridade: auto, income ou expense")
	fs.Parse(os.Args[2:])

	svc, st, up := setup(log, *file, false)
	defer st.Close()

	target := pipeline.TargetTransactions
	if *kind == "clients" {
		target = pipeline.TargetClients
	}

	result, err := svc.ImportDelimited(context.Background(), up, target, parsePolarity(*polarity))
	report(log, svc, result, err)
}

func runAI(log zerolog.Logger) {
	fs := flag.NewFlagSet("ai", flag.ExitOnError)
	file := fs.String("file", "", "caminho do documento")
	mode := fs.String("mode", "thinking", "modo do modelo: fast, standard ou thinking")
	polarity := fs.String("polarity", "auto", "polaridade: auto, income ou expense")
	fs.Parse(os.Args[2:])

	svc, st, up := setup(log, *file, true)
	defer st.Close()

	result, err := svc.ImportDocument(context.Background(), up, parseMode(*mode), parsePolarity(*polarity))
	report(log, svc, result, err)
}

func runConvert(log zerolog.Logger) {
	fs := flag.NewFlagSet("convert", flag.ExitOnError)
	file := fs.String("file", "", "caminho do documento")
	mode := fs.String("mode", "thinking", "modo do modelo: fast, standard ou thinking")
	out := fs.String("out", "", "grava o CSV convertido neste caminho")
	fs.Parse(os.Args[2:])

	svc, st, up := setup(log, *file, true)
	defer st.Close()

	result, err := svc.ConvertAndImport(context.Background(), up, parseMode(*mode), domain.PolarityAuto)
	if result.Artifact != "" && *out != "" {
		if werr := os.WriteFile(*out, []byte(result.Artifact), 0o644); werr != nil {
			log.Error().Err(werr).Str("path", *out).Msg("falha ao gravar CSV convertido")
		} else {
			log.Info().Str("path", *out).Msg("CSV convertido gravado")
		}
	}
	report(log, svc, result, err)
}

// setup wires a pipeline service for one run and reads the input file.
func setup(log zerolog.Logger, path string, needModel bool) (*pipeline.Service, store.Store, pipeline.Upload) {
	if path == "" {
		log.Fatal().Msg("a opção -file é obrigatória")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		log.Fatal().Err(err).Str("path", path).Msg("falha ao ler arquivo")
	}

	cfg := config.Load()
	ctx := context.Background()

	var st store.Store
	if cfg.DatabaseURL != "" {
		st, err = postgres.Open(ctx, cfg.DatabaseURL)
	} else {
		if mkErr := os.MkdirAll(cfg.DataDir, 0o755); mkErr != nil {
			log.Fatal().Err(mkErr).Msg("falha ao criar diretório de dados")
		}
		st, err = local.Open(filepath.Join(cfg.DataDir, "gestorpme.json"))
	}
	if err != nil {
		log.Fatal().Err(err).Msg("falha ao abrir armazenamento")
	}

	blobs, err := filestore.NewLocalDir(filepath.Join(cfg.DataDir, "files"))
	if err != nil {
		log.Fatal().Err(err).Msg("falha ao criar diretório de documentos")
	}

	var extractor pipeline.Extractor
	if needModel {
		gen, err := extract.NewGeminiGenerator(ctx, cfg.GeminiAPIKey)
		if err != nil {
			log.Fatal().Err(err).Msg("falha ao criar cliente do modelo")
		}
		extractor = extract.NewOrchestrator(gen, log)
	} else {
		extractor = extract.NewOrchestrator(nil, log)
	}

	activity := importer.NewActivityLog()
	exec := importer.NewExecutor(st, activity, log)
	svc := pipeline.NewService(st, blobs, extractor, exec, activity, log)

	mediaType := mime.TypeByExtension(filepath.Ext(path))
	if mediaType == "" {
		mediaType = "application/octet-stream"
	}
	return svc, st, pipeline.Upload{Name: filepath.Base(path), MediaType: mediaType, Data: data}
}

func report(log zerolog.Logger, svc *pipeline.Service, result pipeline.Result, err error) {
	for _, entry := range svc.Activity().Entries() {
		fmt.Printf("[%s] %s\n", entry.Severity, entry.Message)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("importação falhou")
	}
	log.Info().
		Int("created", result.Summary.Created).
		Int("warnings", result.Summary.Warnings).
		Strs("new_categories", result.Summary.NewCategories).
		Strs("new_entities", result.Summary.NewEntities).
		Msg("importação concluída")
}

func parsePolarity(s string) domain.PolarityHint {
	switch s {
	case "income", "receita":
		return domain.PolarityForceIncome
	case "expense", "despesa":
		return domain.PolarityForceExpense
	default:
		return domain.PolarityAuto
	}
}

func parseMode(s string) extract.Mode {
	switch s {
	case "fast":
		return extract.ModeFast
	case "standard":
		return extract.ModeStandard
	default:
		return extract.ModeThinking
	}
}
