// Copyright 2025 Raywall Malheiros de Souza
// Licensed under the Mozilla Public License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	https://www.mozilla.org/en-US/MPL/2.0/
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package envloader

import (
	"fmt"
	"reflect"
)

// InvalidConfigError indica que Load não recebeu um ponteiro para struct.
type InvalidConfigError struct {
	Value reflect.Type
}

// Exemplo: "envloader: config must be a non-nil pointer to struct, got string"
func (e *InvalidConfigError) Error() string {
	const msg = "envloader: config must be a non-nil pointer to struct, got "
	switch {
	case e.Value == nil:
		return msg + "nil"
	case e.Value.Kind() != reflect.Ptr:
		return msg + e.Value.Kind().String()
	case e.Value.Elem().Kind() == reflect.Struct:
		return msg + "nil " + e.Value.String()
	}
	return fmt.Sprintf("%spointer to %s", msg, e.Value.Elem().Kind())
}

// FieldError encapsula a falha ao converter o valor de uma variável para o
// tipo do campo (erro do strconv, time.ParseDuration ou UnsupportedTypeError).
type FieldError struct {
	FieldName string
	EnvVar    string
	Value     string
	Err       error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("envloader: error setting field %s from env %s=%s: %v",
		e.FieldName, e.EnvVar, e.Value, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// UnsupportedTypeError indica um tipo de campo sem conversão (map, interface...).
type UnsupportedTypeError struct {
	Type reflect.Type
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("envloader: unsupported type %s", e.Type)
}
