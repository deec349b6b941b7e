package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/raywall/fast-counter/counter"
	"github.com/raywall/fast-counter/pkg/engine"
	"github.com/raywall/fast-counter/pkg/transport"
)

const usage = `Uso: counterctl <comando> -file <config> [flags]

Comandos:
  validate      valida e analisa a configuração
  create-table  cria a tabela de contadores (pré-provisionamento)
  get           lê um contador, criando-o com -start se não existir
  incr          incrementa um contador em +amount
  decr          decrementa um contador em -amount
  purge         remove todos os contadores da tabela
  drop          remove a tabela (exige -confirm)
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executa um subcomando e devolve o exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		fmt.Fprint(stderr, usage)
		return 2
	}

	cmd := args[0]
	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	fs.SetOutput(stderr)
	filePtr := fs.String("file", os.Getenv("CONFIG_FILE_PATH"), "Caminho do arquivo YAML ou S3/DynamoDB URI")
	namePtr := fs.String("name", "", "Nome do contador")
	startPtr := fs.Int64("start", 0, "Valor inicial caso o contador não exista")
	amountPtr := fs.Int64("amount", 1, "Quantidade aplicada por incr/decr")
	jsonPtr := fs.Bool("json", os.Getenv("OUTPUT_FORMAT") == "json", "Saída em JSON (validate)")
	confirmPtr := fs.Bool("confirm", false, "Confirma operações destrutivas (drop)")

	switch cmd {
	case "validate", "create-table", "get", "incr", "decr", "purge", "drop":
	case "-h", "--help", "help":
		fmt.Fprint(stdout, usage)
		return 0
	default:
		fmt.Fprintf(stderr, "Comando desconhecido: %s\n\n%s", cmd, usage)
		return 2
	}

	if err := fs.Parse(args[1:]); err != nil {
		return 2
	}
	if *filePtr == "" {
		fmt.Fprintln(stderr, "Erro: flag -file é obrigatória")
		return 2
	}

	if cmd == "validate" {
		return runValidate(ctx, *filePtr, *jsonPtr, stdout, stderr)
	}

	cfg, err := engine.NewUniversalLoader().Load(ctx, *filePtr)
	if err != nil {
		fmt.Fprintf(stderr, "❌ Erro de carregamento: %v\n", err)
		return 1
	}
	svc, err := engine.NewServiceEngine(ctx, cfg, *filePtr)
	if err != nil {
		fmt.Fprintf(stderr, "❌ Erro ao iniciar engine: %v\n", err)
		return 1
	}
	defer svc.Shutdown(context.Background())

	switch cmd {
	case "create-table":
		table, err := svc.Store.CreateTable(ctx)
		if err != nil {
			return fail(stderr, err)
		}
		fmt.Fprintf(stdout, "✅ Tabela %s criada e ativa\n", table.Name())

	case "get", "incr", "decr":
		if *namePtr == "" {
			fmt.Fprintln(stderr, "Erro: flag -name é obrigatória")
			return 2
		}
		var (
			rec counter.Record
			err error
		)
		switch cmd {
		case "get":
			rec, err = svc.Get(ctx, *namePtr, *startPtr)
		case "incr":
			rec, err = svc.Apply(ctx, *namePtr, *amountPtr, *startPtr)
		case "decr":
			var delta int64
			if delta, err = counter.Negate(*amountPtr); err == nil {
				rec, err = svc.Apply(ctx, *namePtr, delta, *startPtr)
			}
		}
		if err != nil {
			return fail(stderr, err)
		}
		out, _ := json.MarshalIndent(transport.NewCounterResponse(rec), "", "  ")
		fmt.Fprintln(stdout, string(out))

	case "purge":
		n, err := svc.Store.Purge(ctx)
		if err != nil {
			return fail(stderr, err)
		}
		fmt.Fprintf(stdout, "✅ %d contadores removidos\n", n)

	case "drop":
		if !*confirmPtr {
			fmt.Fprintf(stderr, "Erro: drop remove a tabela %s; repita com -confirm\n", cfg.Table.Name)
			return 2
		}
		if err := svc.Store.Drop(ctx); err != nil {
			return fail(stderr, err)
		}
		fmt.Fprintf(stdout, "✅ Tabela %s removida\n", cfg.Table.Name)
	}
	return 0
}

func runValidate(ctx context.Context, path string, asJSON bool, stdout, stderr io.Writer) int {
	if !asJSON {
		fmt.Fprintf(stdout, "🔍 Analisando configuração: %s ...\n", path)
	}

	// 1. Load (Validação Estrutural)
	cfg, err := engine.NewUniversalLoader().Load(ctx, path)
	if err != nil {
		fmt.Fprintf(stderr, "❌ Erro de Carregamento/Estrutura:\n%v\n", err)
		return 1
	}

	// 2. Analyze (Validação Lógica/Semântica)
	report := engine.Analyze(cfg)

	// Output JSON para integração com pipelines de CI
	if asJSON {
		out, _ := json.Marshal(report)
		fmt.Fprintln(stdout, string(out))
		if !report.Valid {
			return 1
		}
		return 0
	}

	for _, w := range report.Warnings {
		fmt.Fprintf(stdout, "⚠️  %s\n", w)
	}
	if !report.Valid {
		fmt.Fprintln(stderr, "❌ A configuração contém erros lógicos:")
		for _, e := range report.Errors {
			fmt.Fprintf(stderr, " - %s\n", e)
		}
		return 1
	}
	fmt.Fprintln(stdout, "✅ Configuração Válida e Pronta para Deploy!")
	return 0
}

func fail(stderr io.Writer, err error) int {
	fmt.Fprintf(stderr, "❌ %v\n", err)
	if errors.Is(err, context.Canceled) {
		return 130
	}
	return 1
}
