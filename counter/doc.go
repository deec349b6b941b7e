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
//
// Package counter fornece contadores nomeados, persistentes e com incremento
// atômico sobre um key-value store externo (DynamoDB, Redis ou memória).
//
// Visão Geral:
// O `Store` resolve a tabela de contadores (criando-a sob demanda com o
// schema e o throughput configurados), busca ou cria o registro de cada
// contador e devolve um `Counter`. O `Counter` mantém um snapshot local e
// aplica incrementos/decrementos com a soma atômica do próprio store, de
// modo que chamadores concorrentes nunca perdem atualizações.
//
// Funcionalidades Principais:
//   - Resolução lazy da tabela com cache do handle por instância.
//   - Criação automática da tabela com espera (intervalo fixo, tempo máximo).
//   - Get-or-create de registros com timestamps created_on/modified_on.
//   - Incremento/decremento atômico no servidor (ADD count :delta).
//   - Pontos de extensão via `Provider` (nome, schema, throughput, backend).
//
// Exemplo de Uso:
//
//	client := dynamodb.NewFromConfig(awsCfg)
//	store, err := counter.NewFromConfig(counter.Config{
//		TableName: "counters",
//		Backend:   dyndb.NewBackend(client),
//	})
//	if err != nil { /* ... */ }
//
//	views, err := store.GetCounter(ctx, "page:42", 0)
//	if err != nil { /* ... */ }
//
//	n, err := views.Inc(ctx) // 1
//	n, err = views.Increment(ctx, 5) // 6
//	n, err = views.Decrement(ctx, 2) // 4
//
// Corrida de Criação:
// Por padrão a criação do registro não é condicional: dois processos que
// observem o contador ausente ao mesmo tempo podem ambos criá-lo e o último
// a gravar vence (o valor inicial do outro é perdido). `WithStrictCreate`
// (ou `Config.StrictCreate`) usa escrita condicional e faz o perdedor reler
// o registro do vencedor.
//
// Concorrência:
// Um `Counter` pode ser compartilhado entre goroutines, mas seu snapshot só
// reflete escritas de outros processos após `Refresh`.
package counter
