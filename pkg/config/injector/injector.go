package injector

import (
	"context"
	"fmt"
	"os"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/raywall/fast-counter/envloader"
	"github.com/raywall/fast-counter/pkg/awsconf"
)

// Regex para capturar padrões ${tipo.chave}
// Ex: ${env.REDIS_ADDR}, ${ssm./counter/table}, ${secret.redis#password}
var pattern = regexp.MustCompile(`\$\{(env|ssm|secret)\.([^}]+)\}`)

// Source resolve valores remotos (implementado por awsconf.Fetcher).
type Source interface {
	FetchParameter(ctx context.Context, path string, decrypt bool) (string, error)
	FetchSecret(ctx context.Context, secretID, field string) (string, error)
}

type Injector struct {
	mu     sync.Mutex
	source Source
}

// New cria um Injector. Sem Source, um awsconf.Fetcher é construído na
// primeira referência a ssm/secret usando AWS_REGION.
func New(source ...Source) *Injector {
	i := &Injector{}
	if len(source) > 0 {
		i.source = source[0]
	}
	return i
}

func (i *Injector) Inject(ctx context.Context, target any) error {
	v := reflect.ValueOf(target)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return fmt.Errorf("target deve ser um ponteiro para struct não nulo")
	}
	if err := i.injectRecursive(ctx, v.Elem()); err != nil {
		return err
	}

	// Tags (env:"...") sobrescrevem o valor do YAML já interpolado
	if v.Elem().Kind() == reflect.Struct {
		return envloader.Load(target)
	}
	return nil
}

func (i *Injector) injectRecursive(ctx context.Context, v reflect.Value) error {
	switch v.Kind() {
	case reflect.Struct:
		t := v.Type()
		for k := 0; k < t.NumField(); k++ {
			field := t.Field(k)
			value := v.Field(k)
			if !field.IsExported() {
				continue
			}

			// 1. Interpolação "${...}"
			if value.Kind() == reflect.String && value.CanSet() {
				newValue, err := i.interpolateString(ctx, value.String())
				if err != nil {
					return fmt.Errorf("campo %s: %w", field.Name, err)
				}
				value.SetString(newValue)
			}

			// 2. Recursão
			if err := i.injectRecursive(ctx, value); err != nil {
				return err
			}
		}

	case reflect.Map:
		if v.Type().Key().Kind() == reflect.String && !v.IsNil() {
			return i.injectMap(ctx, v)
		}

	case reflect.Ptr:
		if !v.IsNil() {
			return i.injectRecursive(ctx, v.Elem())
		}

	case reflect.Slice:
		for j := 0; j < v.Len(); j++ {
			elem := v.Index(j)
			if elem.Kind() == reflect.String && elem.CanSet() {
				newValue, err := i.interpolateString(ctx, elem.String())
				if err != nil {
					return err
				}
				elem.SetString(newValue)
				continue
			}
			if err := i.injectRecursive(ctx, elem); err != nil {
				return err
			}
		}
	}
	return nil
}

// interpolateString realiza a substituição baseada em Regex
func (i *Injector) interpolateString(ctx context.Context, input string) (string, error) {
	if !strings.Contains(input, "${") {
		return input, nil
	}

	var err error
	result := pattern.ReplaceAllStringFunc(input, func(match string) string {
		if err != nil {
			return match
		}
		groups := pattern.FindStringSubmatch(match)

		val, resolveErr := i.fetchValue(ctx, groups[1], groups[2])
		if resolveErr != nil {
			err = resolveErr
			return match
		}
		return val
	})

	return result, err
}

// injectMap lida com mapas dinâmicos
func (i *Injector) injectMap(ctx context.Context, v reflect.Value) error {
	iter := v.MapRange()
	updates := make(map[string]string)

	for iter.Next() {
		elem := iter.Value()
		if elem.Kind() == reflect.Interface {
			elem = elem.Elem()
		}
		if !elem.IsValid() {
			continue
		}

		switch elem.Kind() {
		case reflect.String:
			newVal, err := i.interpolateString(ctx, elem.String())
			if err != nil {
				return err
			}
			updates[iter.Key().String()] = newVal
		case reflect.Map:
			if elem.Type().Key().Kind() == reflect.String {
				if err := i.injectMap(ctx, elem); err != nil {
					return err
				}
			}
		}
	}

	for k, val := range updates {
		v.SetMapIndex(reflect.ValueOf(k), reflect.ValueOf(val).Convert(v.Type().Elem()))
	}
	return nil
}

// fetchValue centraliza a busca de dados
func (i *Injector) fetchValue(ctx context.Context, sourceType, key string) (string, error) {
	switch sourceType {
	case "env":
		// Variável ausente resolve para vazio; o validador acusa campos obrigatórios.
		return os.Getenv(key), nil

	case "ssm":
		src, err := i.remote(ctx)
		if err != nil {
			return "", err
		}
		return src.FetchParameter(ctx, key, true)

	case "secret":
		src, err := i.remote(ctx)
		if err != nil {
			return "", err
		}
		id, field, _ := strings.Cut(key, "#")
		return src.FetchSecret(ctx, id, field)
	}

	return "", fmt.Errorf("fonte desconhecida: %s", sourceType)
}

func (i *Injector) remote(ctx context.Context) (Source, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.source != nil {
		return i.source, nil
	}
	cfg, err := awsconf.Load(ctx, awsconf.Options{Region: os.Getenv("AWS_REGION")})
	if err != nil {
		return nil, err
	}
	i.source = awsconf.NewFetcher(cfg)
	return i.source, nil
}
