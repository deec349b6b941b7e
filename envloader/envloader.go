package envloader

import (
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
)

var durationType = reflect.TypeOf(time.Duration(0))

// LookupFunc devolve o valor de uma variável e se ela está definida.
type LookupFunc func(name string) (string, bool)

// Option ajusta o carregamento.
type Option func(*loader)

// WithPrefix antepõe prefix a todas as tags `env` (ex.: "COUNTER_" + "TABLE_NAME").
func WithPrefix(prefix string) Option {
	return func(l *loader) { l.prefix = prefix }
}

// WithLookup troca a fonte das variáveis (padrão os.LookupEnv).
func WithLookup(fn LookupFunc) Option {
	return func(l *loader) { l.lookup = fn }
}

type loader struct {
	prefix string
	lookup LookupFunc
}

// Load preenche uma struct com valores de variáveis de ambiente
// baseado nas tags "env", "envDefault", "envSeparator" e "envPrefix".
// Variáveis vazias são tratadas como ausentes.
func Load(config interface{}, opts ...Option) error {
	val := reflect.ValueOf(config)
	if val.Kind() != reflect.Ptr || val.IsNil() || val.Elem().Kind() != reflect.Struct {
		var typ reflect.Type
		if config != nil {
			typ = val.Type()
		}
		return &InvalidConfigError{Value: typ}
	}

	l := &loader{lookup: os.LookupEnv}
	for _, opt := range opts {
		opt(l)
	}
	return l.loadStruct(val.Elem(), l.prefix)
}

// MustLoad é similar ao Load, mas panic em caso de erro
func MustLoad(config interface{}, opts ...Option) {
	if err := Load(config, opts...); err != nil {
		panic(err)
	}
}

func (l *loader) loadStruct(val reflect.Value, prefix string) error {
	typ := val.Type()

	for i := 0; i < val.NumField(); i++ {
		field := val.Field(i)
		fieldType := typ.Field(i)
		if !field.CanSet() {
			continue
		}

		// Structs aninhadas herdam o prefixo e podem acrescentar o seu
		nested := prefix + fieldType.Tag.Get("envPrefix")
		switch {
		case field.Kind() == reflect.Struct:
			if err := l.loadStruct(field, nested); err != nil {
				return err
			}
			continue

		case field.Kind() == reflect.Ptr && field.Type().Elem().Kind() == reflect.Struct:
			if field.IsNil() {
				field.Set(reflect.New(field.Type().Elem()))
			}
			if err := l.loadStruct(field.Elem(), nested); err != nil {
				return err
			}
			continue
		}

		tag := fieldType.Tag.Get("env")
		if tag == "" || tag == "-" {
			continue
		}
		name := prefix + tag

		value, ok := l.value(name, fieldType.Tag)
		if !ok {
			continue
		}

		target := field
		if field.Kind() == reflect.Ptr {
			// *bool, *int...: aloca só quando há valor, preservando nil como "ausente"
			target = reflect.New(field.Type().Elem()).Elem()
		}
		if err := setFieldValue(target, value, fieldType.Tag.Get("envSeparator")); err != nil {
			return &FieldError{FieldName: fieldType.Name, EnvVar: name, Value: value, Err: err}
		}
		if field.Kind() == reflect.Ptr {
			field.Set(target.Addr())
		}
	}
	return nil
}

func (l *loader) value(name string, tag reflect.StructTag) (string, bool) {
	if v, ok := l.lookup(name); ok && v != "" {
		return v, true
	}
	if def := tag.Get("envDefault"); def != "" {
		return def, true
	}
	return "", false
}

func setFieldValue(field reflect.Value, value, separator string) error {
	// time.Duration é int64, precisa ser tratado antes do switch por Kind
	if field.Type() == durationType {
		d, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		field.SetInt(int64(d))
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(value, 10, field.Type().Bits())
		if err != nil {
			return err
		}
		field.SetInt(n)

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(value, 10, field.Type().Bits())
		if err != nil {
			return err
		}
		field.SetUint(n)

	case reflect.Bool:
		b, err := strconv.ParseBool(strings.ToLower(value))
		if err != nil {
			return err
		}
		field.SetBool(b)

	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(value, field.Type().Bits())
		if err != nil {
			return err
		}
		field.SetFloat(f)

	case reflect.Slice:
		if separator == "" {
			separator = ","
		}
		parts := strings.Split(value, separator)
		slice := reflect.MakeSlice(field.Type(), 0, len(parts))
		for _, p := range parts {
			elem := reflect.New(field.Type().Elem()).Elem()
			if err := setFieldValue(elem, strings.TrimSpace(p), separator); err != nil {
				return err
			}
			slice = reflect.Append(slice, elem)
		}
		field.Set(slice)

	default:
		return &UnsupportedTypeError{Type: field.Type()}
	}
	return nil
}
