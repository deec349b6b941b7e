// Package fastcounter fornece contadores nomeados, persistentes e com
// incremento atômico sobre um key-value store, além do serviço e da CLI que
// os expõem.
//
// Visão Geral:
// O módulo é dividido em uma biblioteca (o pacote counter e seus backends) e
// em um serviço configurável por YAML que expõe os contadores por HTTP,
// API Gateway/Lambda e eventos SQS.
//
// Sub-Pacotes Principais:
//
// 1. counter:
//   - Store: resolve a tabela (criando-a sob demanda e aguardando ACTIVE).
//   - Counter: snapshot local com Increment/Decrement atômicos no servidor.
//   - MemoryBackend para testes e execução local.
//
// 2. dyndb:
//   - Backend DynamoDB (ADD count + SET modified_on, leitura consistente).
//
// 3. redisdb:
//   - Backend Redis com hashes por contador e scripts Lua atômicos.
//
// 4. envloader:
//   - Carregamento de configurações via tags "env" e "envDefault".
//
// 5. pkg/engine, pkg/transport e cmd/:
//   - Loader de configuração (arquivo, S3, DynamoDB), servidor HTTP, handler
//     Lambda, consumidor SQS e a CLI counterctl.
//
// Exemplo de Uso:
//
//	store, err := counter.NewFromConfig(counter.Config{
//		TableName: "counters",
//		Backend:   dyndb.NewFromConfig(awsCfg),
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	c, err := store.GetCounter(ctx, "page:home", 0)
//	if err != nil {
//		log.Fatal(err)
//	}
//	n, err := c.Inc(ctx)
//	log.Printf("visitas: %d", n)
package fastcounter
