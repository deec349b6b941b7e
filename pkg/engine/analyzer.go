package engine

import (
	"fmt"

	"github.com/raywall/fast-counter/pkg/config"
)

// ValidationReport contém o resultado detalhado da análise.
type ValidationReport struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// Analyze realiza uma inspeção da configuração além do validador: resolve o
// schema/throughput como o Store faria e aponta combinações arriscadas.
func Analyze(cfg *config.ServiceConfig) *ValidationReport {
	report := &ValidationReport{
		Valid:    true,
		Errors:   []string{},
		Warnings: []string{},
	}

	if err := config.NewValidator().Validate(cfg); err != nil {
		report.Errors = append(report.Errors, err.Error())
	}

	storeCfg, err := StoreConfig(cfg.Table)
	if err != nil {
		report.Errors = append(report.Errors, err.Error())
	} else {
		if _, err := storeCfg.ResolveSchema(); err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("table: %v", err))
		}
		if _, err := storeCfg.ResolveThroughput(); err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("table: %v", err))
		}
	}

	// Warnings
	if !cfg.Table.StrictCreate && cfg.Service.Runtime == "lambda" {
		report.Warnings = append(report.Warnings,
			"table.strict_create desabilitado: instâncias lambda concorrentes podem sobrescrever um contador recém-criado")
	}
	if cfg.Backend.Type == "dynamodb" && !cfg.Table.ConsistentReadEnabled() {
		report.Warnings = append(report.Warnings,
			"table.consistent_read=false: leituras podem não refletir incrementos recentes")
	}
	if cfg.Backend.AWS.SecretKey != "" && cfg.Backend.AWS.Endpoint == "" {
		report.Warnings = append(report.Warnings,
			"backend.aws.secret_key em texto plano; prefira ${secret.X} ou a cadeia padrão de credenciais")
	}
	if cfg.Backend.Type == "memory" {
		report.Warnings = append(report.Warnings,
			"backend memory não persiste contadores entre reinícios")
	}
	if _, maxWait, err := cfg.Table.Durations(); err == nil && cfg.Table.AutoCreateEnabled() &&
		cfg.Service.Runtime == "lambda" && (maxWait == 0 || maxWait > cfg.Service.GetTimeout()) {
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("table.max_wait excede service.timeout (%s); a criação da tabela pode estourar o tempo da invocação",
				cfg.Service.GetTimeout()))
	}
	if cfg.Backend.Type != "dynamodb" && (cfg.Table.ReadUnits > 0 || cfg.Table.WriteUnits > 0) {
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("read_units/write_units são ignorados pelo backend %s", cfg.Backend.Type))
	}

	report.Valid = len(report.Errors) == 0
	return report
}
