package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

type ConfigValidator struct {
	validate *validator.Validate
}

// NewValidator cria uma nova instância do validador
func NewValidator() *ConfigValidator {
	return &ConfigValidator{
		validate: validator.New(),
	}
}

// Validate realiza validações estruturais (tags) e semânticas (lógica)
func (cv *ConfigValidator) Validate(cfg *ServiceConfig) error {
	// 1. Validação Estrutural (Tags do struct: required, oneof, etc)
	if err := cv.validate.Struct(cfg); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			var errMsgs []string
			for _, e := range validationErrors {
				errMsgs = append(errMsgs, fmt.Sprintf("Campo '%s' falhou na regra '%s'", e.Namespace(), e.Tag()))
			}
			return fmt.Errorf("erros de validação estrutural:\n- %s", strings.Join(errMsgs, "\n- "))
		}
		return fmt.Errorf("erro de validação estrutural: %w", err)
	}

	// 2. Validação Semântica (Regras de negócio da configuração)
	if err := cv.validateSemantics(cfg); err != nil {
		return fmt.Errorf("erro de validação semântica: %w", err)
	}

	return nil
}

func (cv *ConfigValidator) validateSemantics(cfg *ServiceConfig) error {
	// 1. Seções obrigatórias por backend
	switch cfg.Backend.Type {
	case "redis":
		if cfg.Backend.Redis.Addr == "" {
			return fmt.Errorf("backend redis exige 'backend.redis.addr'")
		}
	case "memory":
		if cfg.Service.Runtime == "lambda" {
			return fmt.Errorf("backend memory não persiste entre invocações lambda")
		}
	}

	// 2. Durações da tabela
	poll, maxWait, err := cfg.Table.Durations()
	if err != nil {
		return fmt.Errorf("duração inválida em 'table': %w", err)
	}
	if poll < 0 || maxWait < 0 {
		return fmt.Errorf("'table.poll_interval' e 'table.max_wait' devem ser positivos")
	}
	if poll > 0 && maxWait > 0 && maxWait < poll {
		return fmt.Errorf("'table.max_wait' (%s) menor que 'table.poll_interval' (%s)", maxWait, poll)
	}

	// 3. Timeout do serviço
	if cfg.Service.Timeout != "" {
		if _, err := time.ParseDuration(cfg.Service.Timeout); err != nil {
			return fmt.Errorf("timeout inválido em 'service.timeout': %w", err)
		}
	}

	// 4. Eventos SQS só fazem sentido com runtime local (consumidor em background)
	if cfg.Events.QueueURL != "" && cfg.Service.Runtime == "lambda" {
		return fmt.Errorf("'events.queue_url' não é suportado com runtime lambda; use um event source mapping")
	}

	return nil
}
