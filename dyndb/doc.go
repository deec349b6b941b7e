// Package dyndb implementa o backend DynamoDB dos contadores sobre o AWS
// DynamoDB Go SDK (v2).
//
// Visão Geral:
// O `Backend` satisfaz `counter.Backend`: abre tabelas via DescribeTable,
// cria tabelas com hash key única e throughput provisionado e devolve
// handles que leem, criam e incrementam registros de contador.
//
// Funcionalidades Principais:
//   - Incremento atômico: `ADD count :delta SET modified_on = :ts` em um
//     único UpdateItem com ReturnValues UPDATED_NEW.
//   - Criação condicional: `attribute_not_exists` na hash key quando o Store
//     usa strict create.
//   - Extras: atributos adicionais do registro (de)codificados com
//     `attributevalue`.
//   - Limpeza: Purge (Scan + BatchWriteItem em lotes de 25) e Drop (DeleteTable).
//
// Exemplo de Uso:
//
//	cfg, _ := awsconf.Load(ctx, awsconf.Options{Region: "us-east-1"})
//	backend := dyndb.NewFromConfig(cfg, dyndb.WithConsistentRead(true))
//
//	store := counter.New(counter.Config{
//		TableName: "counters",
//		Backend:   backend,
//	})
//	c, err := store.GetCounter(ctx, "page:42", 0)
//
// Erros do SDK são traduzidos para os sentinelas de `counter`
// (ResourceNotFoundException → ErrTableNotFound, ResourceInUseException →
// ErrTableExists, ConditionalCheckFailedException → ErrRecordExists ou
// ErrRecordNotFound) mantendo o erro original na cadeia.
package dyndb
