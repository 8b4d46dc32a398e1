package i18n

// Error codes must match the codes defined in internal/platform/errors/codes.go.
// These are duplicated as strings to avoid an import cycle.
const (
	CodeInvalidFormat        = "INVALID_FORMAT"
	CodeInvalidPointInput    = "INVALID_POINT_INPUT"
	CodeInvalidGameInput     = "INVALID_GAME_INPUT"
	CodeInvalidSetInput      = "INVALID_SET_INPUT"
	CodeMatchCompleted       = "MATCH_COMPLETED"
	CodeSegmentNotTimed      = "SEGMENT_NOT_TIMED"
	CodeSegmentTied          = "SEGMENT_TIED"
	CodeInvalidLineup        = "INVALID_LINEUP"
	CodeInvalidSubstitution  = "INVALID_SUBSTITUTION"
	CodeUndoUnderflow        = "UNDO_UNDERFLOW"
	CodeRedoUnderflow        = "REDO_UNDERFLOW"
	CodeStateDeserialization = "STATE_DESERIALIZATION_ERROR"
	CodeNotFound             = "NOT_FOUND"
)

var enUSCatalog = &Catalog{
	locale: "en-US",
	messages: map[Code]string{
		CodeInvalidFormat:        "Match format {{.Format}} is not valid",
		CodeInvalidPointInput:    "Point input is not valid",
		CodeInvalidGameInput:     "Game input is not valid",
		CodeInvalidSetInput:      "Set input is not valid",
		CodeMatchCompleted:       "The match is already completed",
		CodeSegmentNotTimed:      "Only timed segments can be ended explicitly",
		CodeSegmentTied:          "The segment is tied at {{.Side1}}-{{.Side2}}; play must continue",
		CodeInvalidLineup:        "Lineup for side {{.Side}} is not valid",
		CodeInvalidSubstitution:  "Participant {{.Participant}} is not active on side {{.Side}}",
		CodeUndoUnderflow:        "There is nothing to undo",
		CodeRedoUnderflow:        "There is nothing to redo",
		CodeStateDeserialization: "Saved match state could not be restored",
		CodeNotFound:             "The requested match was not found",
	},
}

var ptBRCatalog = &Catalog{
	locale: "pt-BR",
	messages: map[Code]string{
		CodeInvalidFormat:        "O formato de partida {{.Format}} não é válido",
		CodeInvalidPointInput:    "Os dados do ponto não são válidos",
		CodeInvalidGameInput:     "Os dados do game não são válidos",
		CodeInvalidSetInput:      "Os dados do set não são válidos",
		CodeMatchCompleted:       "A partida já foi encerrada",
		CodeSegmentNotTimed:      "Apenas segmentos cronometrados podem ser encerrados manualmente",
		CodeSegmentTied:          "O segmento está empatado em {{.Side1}}-{{.Side2}}; o jogo deve continuar",
		CodeInvalidLineup:        "A escalação do lado {{.Side}} não é válida",
		CodeInvalidSubstitution:  "O participante {{.Participant}} não está ativo no lado {{.Side}}",
		CodeUndoUnderflow:        "Não há nada para desfazer",
		CodeRedoUnderflow:        "Não há nada para refazer",
		CodeStateDeserialization: "O estado salvo da partida não pôde ser restaurado",
		CodeNotFound:             "A partida solicitada não foi encontrada",
	},
}
