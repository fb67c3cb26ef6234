package lykiadb

import (
	"testing"

	"github.com/lykia-rs/lykiadb/lexer"
	"github.com/lykia-rs/lykiadb/parser"
	"github.com/lykia-rs/lykiadb/value"
)

const benchScript = `
	var $total = 0;
	for (var $i = 0; $i < 100; $i = $i + 1) {
		$total = $total + $i * 2;
	}
	$total;
`

const benchQuery = `SELECT category, avg(price) AS mean FROM items ` +
	`WHERE price BETWEEN 5 AND 500 GROUP BY category HAVING avg(price) > 10 ` +
	`ORDER BY mean DESC LIMIT 10;`

func BenchmarkScan(b *testing.B) {
	for i := 0; i < b.N; i++ {
		if _, err := lexer.Scan(benchQuery); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkParse(b *testing.B) {
	tokens, err := lexer.Scan(benchQuery)
	if err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := parser.Parse(tokens); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkInterpretScript(b *testing.B) {
	session := Default().NewSession()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, _, err := session.Run(benchScript); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkQuery(b *testing.B) {
	runtime := Default()
	for i := 0; i < 100; i++ {
		runtime.Database().Seed("", "items", map[string]value.Value{
			"category": value.Str([]string{"a", "b", "c", "d"}[i%4]),
			"price":    value.Num(float64(i)),
		})
	}
	session := runtime.NewSession()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, _, err := session.Run(benchQuery); err != nil {
			b.Fatal(err)
		}
	}
}
