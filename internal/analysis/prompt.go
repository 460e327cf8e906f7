package analysis

import (
	"fmt"
	"strings"

	"github.com/lithammer/dedent"
)

// DefaultPromptTemplate is the instruction sheet sent to the model. It pins
// the four validation criteria and the exact two response shapes the parser
// expects. %s is replaced by the product block.
var DefaultPromptTemplate = strings.TrimSpace(dedent.Dedent(`
	Analise esta prateleira de varejo considerando os seguintes produtos:

	%s

	Forneça uma resposta em português seguindo EXATAMENTE o formato abaixo:

	CRITÉRIOS DE VALIDAÇÃO:
	1. Nome e logo visíveis: [Verdadeiro/Falso]
	2. Preço do produto visível: [Verdadeiro/Falso]
	3. Marcas concorrentes sem destaque: [Verdadeiro/Falso]
	4. Disposição organizada e visualmente agradável: [Verdadeiro/Falso]

	[Se todos os critérios forem Verdadeiro, responder:]
	Validada com sucesso
	Motivos da aprovação:
	- [Lista dos pontos fortes observados]

	[Se algum critério for Falso, responder:]
	Validação pendente
	Dicas para melhoria:
	- [Lista de sugestões específicas para cada critério não atendido]
`))

// BuildPrompt joins the products into a bulleted block and substitutes it
// into the template. Pure; the template is configuration and can be swapped
// without touching the rest of the pipeline.
func BuildPrompt(template string, products []Product) string {
	var b strings.Builder
	for i, p := range products {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "- %s: %s", p.Name, p.Description)
	}
	return fmt.Sprintf(template, b.String())
}
