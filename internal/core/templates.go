package core

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/questionimport/internal/question"
)

// Sheet names of the spreadsheet template.
const (
	TemplateDataSheet         = "Questões"
	TemplateInstructionsSheet = "Instruções"
)

// templateExamples hold one question per type, in Columns order. The CSV
// template uses them as is; the spreadsheet swaps in spreadsheetOptions.
var templateExamples = [][]string{
	{
		"Qual é a sua idade?", "NUMERICA", "DEMOGRAFICA", "LOCAL",
		"true", "0", "120", "Informe sua idade em anos completos", "",
		"", "", "", "",
		"Coletar dados demográficos básicos", "Todos os participantes da pesquisa", "IMPORTED",
	},
	{
		"Qual o seu nível de escolaridade?", "MULTIPLA_ESCOLHA", "DEMOGRAFICA", "NACIONAL",
		"true", "", "", "Selecione o nível mais alto completo", "",
		"Fundamental|Médio|Superior|Pós-graduação", "", "", "",
		"Identificar perfil educacional dos participantes", "Adultos", "IMPORTED",
	},
	{
		"Como você avalia o atendimento recebido?", "ESCALA_LIKERT", "COMPORTAMENTAL", "LOCAL",
		"true", "", "", "Avalie de 1 a 5", "",
		"", "1", "5", `{"1":"Muito insatisfeito","2":"Insatisfeito","3":"Neutro","4":"Satisfeito","5":"Muito satisfeito"}`,
		"Medir satisfação com o atendimento", "Usuários do serviço", "IMPORTED",
	},
	{
		"Você recomendaria nossos serviços?", "SIM_NAO", "COMPORTAMENTAL", "LOCAL",
		"true", "", "", "", "",
		"", "", "", "",
		"Avaliar intenção de recomendação", "Clientes", "IMPORTED",
	},
	{
		"Deixe seus comentários e sugestões", "TEXTO_ABERTO", "QUALITATIVA", "LOCAL",
		"false", "", "", "Escreva livremente suas impressões", "",
		"", "", "", "",
		"Coletar feedback qualitativo", "Todos", "IMPORTED",
	},
	{
		"Qual é a sua data de nascimento?", "DATA", "DEMOGRAFICA", "NACIONAL",
		"true", "", "", "Formato: DD/MM/AAAA", "",
		"", "", "", "",
		"Calcular idade exata", "Todos", "IMPORTED",
	},
	{
		"Em que horário você prefere ser contatado?", "HORA", "COMPORTAMENTAL", "LOCAL",
		"false", "", "", "Formato: HH:MM", "",
		"", "", "", "",
		"Identificar o melhor horário de contato", "Todos", "IMPORTED",
	},
}

// spreadsheetOptions replaces the pipe notation with the JSON one, keyed by
// example index.
var spreadsheetOptions = map[int]string{
	1: `{"choices":["Fundamental","Médio","Superior","Pós-graduação","Mestrado","Doutorado"]}`,
}

// TemplateRowCount is the number of example questions in each template.
var TemplateRowCount = len(templateExamples)

func columnIndex(col string) int {
	for i, c := range Columns {
		if c == col {
			return i
		}
	}
	return -1
}

// CSVTemplate returns the comma-separated template with one example row
// per question type.
func CSVTemplate() string {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write(Columns)
	for _, e := range templateExamples {
		_ = w.Write(e)
	}
	w.Flush()
	return buf.String()
}

var templateColumnWidths = map[string]float64{
	ColText: 50, ColType: 20, ColCategory: 15, ColScope: 15, ColIsRequired: 12,
	ColMinValue: 10, ColMaxValue: 10, ColHelpText: 40, ColValidationRegex: 15,
	ColOptions: 60, ColLikertMin: 10, ColLikertMax: 10, ColLikertLabels: 80,
	ColObjective: 40, ColTargetAudience: 30, ColOrigin: 15,
}

var numericTemplateColumns = map[string]bool{
	ColMinValue: true, ColMaxValue: true, ColLikertMin: true, ColLikertMax: true,
}

// SpreadsheetTemplate returns an xlsx workbook with a data sheet holding
// one example per question type and a sheet documenting every column.
func SpreadsheetTemplate() ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), TemplateDataSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	header := make([]any, len(Columns))
	for i, c := range Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(TemplateDataSheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("create style: %w", err)
	}
	last, _ := excelize.ColumnNumberToName(len(Columns))
	if err := f.SetCellStyle(TemplateDataSheet, "A1", last+"1", bold); err != nil {
		return nil, fmt.Errorf("style header: %w", err)
	}

	optionsCol := columnIndex(ColOptions)
	for i, e := range templateExamples {
		cells := make([]any, len(e))
		for j, v := range e {
			cells[j] = templateCell(Columns[j], v)
		}
		if opts, ok := spreadsheetOptions[i]; ok {
			cells[optionsCol] = opts
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(TemplateDataSheet, cell, &cells); err != nil {
			return nil, fmt.Errorf("write example %d: %w", i+1, err)
		}
	}

	for i, col := range Columns {
		name, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(TemplateDataSheet, name, name, templateColumnWidths[col]); err != nil {
			return nil, fmt.Errorf("set width: %w", err)
		}
	}

	if err := writeInstructions(f, bold); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// templateCell stores bounds as numbers so the sheet behaves like one a
// user filled in by hand.
func templateCell(col, v string) any {
	if v == "" || !numericTemplateColumns[col] {
		return v
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	return v
}

func writeInstructions(f *excelize.File, bold int) error {
	if _, err := f.NewSheet(TemplateInstructionsSheet); err != nil {
		return fmt.Errorf("create instructions sheet: %w", err)
	}

	for i, line := range instructionLines() {
		row := make([]any, len(line))
		for j, v := range line {
			row[j] = v
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(TemplateInstructionsSheet, cell, &row); err != nil {
			return fmt.Errorf("write instructions: %w", err)
		}
		if i == 0 || (len(line) == 1 && strings.HasSuffix(line[0], ":")) {
			_ = f.SetCellStyle(TemplateInstructionsSheet, cell, cell, bold)
		}
	}

	if err := f.SetColWidth(TemplateInstructionsSheet, "A", "A", 30); err != nil {
		return fmt.Errorf("set width: %w", err)
	}
	return f.SetColWidth(TemplateInstructionsSheet, "B", "B", 80)
}

func instructionLines() [][]string {
	join := func(values []string) string { return strings.Join(values, ", ") }

	types := make([]string, 0, len(question.Types()))
	for _, t := range question.Types() {
		types = append(types, t.Name())
	}
	categories := make([]string, 0, len(question.Categories()))
	for _, c := range question.Categories() {
		categories = append(categories, string(c))
	}
	scopes := make([]string, 0, len(question.Scopes()))
	for _, s := range question.Scopes() {
		scopes = append(scopes, string(s))
	}

	return [][]string{
		{"INSTRUÇÕES PARA PREENCHIMENTO"},
		{""},
		{"CAMPOS OBRIGATÓRIOS:"},
		{ColText, fmt.Sprintf("Texto da questão (%d-%d caracteres)", question.MinTextLength, question.MaxTextLength)},
		{ColType, join(types)},
		{ColCategory, join(categories)},
		{ColScope, join(scopes)},
		{""},
		{"CAMPOS OPCIONAIS:"},
		{ColIsRequired, "true/false, 1/0, sim/não, yes/no"},
		{ColMinValue, "Número mínimo (NUMERICA) ou data/hora inicial (DATA, HORA)"},
		{ColMaxValue, "Número máximo (NUMERICA) ou data/hora final (DATA, HORA)"},
		{ColHelpText, fmt.Sprintf("Texto de ajuda (máx %d caracteres)", question.MaxHelpTextLength)},
		{ColValidationRegex, "Expressão regular para validação (para TEXTO_ABERTO)"},
		{ColOptions, "JSON ou formato Opção1|Opção2|Opção3 (para MULTIPLA_ESCOLHA)"},
		{ColLikertMin, "Valor mínimo da escala (para ESCALA_LIKERT)"},
		{ColLikertMax, "Valor máximo da escala (para ESCALA_LIKERT)"},
		{ColLikertLabels, `JSON com rótulos: {"1":"Rótulo1","5":"Rótulo5"}`},
		{ColObjective, fmt.Sprintf("Objetivo da questão (máx %d caracteres)", question.MaxObjectiveLength)},
		{ColTargetAudience, fmt.Sprintf("Público-alvo (máx %d caracteres)", question.MaxTargetAudienceLength)},
		{ColOrigin, "Origem da questão; vazio usa a origem padrão da importação"},
		{""},
		{"FORMATOS ACEITOS PARA OPTIONS:"},
		{"1. JSON completo", `{"choices":["Opção A","Opção B","Opção C"]}`},
		{"2. Array JSON", `["Opção A","Opção B","Opção C"]`},
		{"3. Separado por pipe", "Opção A|Opção B|Opção C"},
		{""},
		{"DICAS:"},
		{"- Linhas totalmente vazias são ignoradas"},
		{"- Use aspas duplas em JSON"},
		{fmt.Sprintf("- Múltipla escolha: mínimo %d, máximo %d opções", question.MinChoices, question.MaxChoices)},
		{fmt.Sprintf("- Escala Likert: intervalo entre 1 e %d pontos", question.MaxLikertRange)},
		{"- Um erro em qualquer linha cancela a importação inteira; todas as linhas com erro são listadas"},
	}
}
