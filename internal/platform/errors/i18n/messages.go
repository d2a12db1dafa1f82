package i18n

// Error codes must match the codes defined in internal/platform/errors/codes.go.
const (
	CodeUnknown                 = "UNKNOWN"
	CodeUnauthorized            = "UNAUTHORIZED"
	CodeStateRead               = "STATE_READ_FAILED"
	CodeCallerRequired          = "CALLER_REQUIRED"
	CodeCallerGrantInvalid      = "CALLER_GRANT_INVALID"
	CodeCallerGrantExpired      = "CALLER_GRANT_EXPIRED"
	CodeCommandTypeUnknown      = "COMMAND_TYPE_UNKNOWN"
	CodeCommandPayloadInvalid   = "COMMAND_PAYLOAD_INVALID"
	CodeInvalidAmount           = "INVALID_AMOUNT"
	CodePaymentOptionIncomplete = "PAYMENT_OPTION_INCOMPLETE"
	CodeFilterInvalid           = "FILTER_INVALID"
	CodePageTokenInvalid        = "PAGE_TOKEN_INVALID"
	CodeNotFound                = "NOT_FOUND"
	CodeStorageWrite            = "STORAGE_WRITE_FAILED"
)

var enUSMessages = map[Code]string{
	CodeUnknown:                 "An unexpected error occurred.",
	CodeUnauthorized:            "Only the contract admin can run this command.",
	CodeStateRead:               "The contract admin could not be read. Try again later.",
	CodeCallerRequired:          "A caller identity is required.",
	CodeCallerGrantInvalid:      "The caller grant is not valid.",
	CodeCallerGrantExpired:      "The caller grant has expired.",
	CodeCommandTypeUnknown:      "Unknown command type{{if .Type}} {{.Type}}{{end}}.",
	CodeCommandPayloadInvalid:   "The command payload is malformed.",
	CodeInvalidAmount:           "Amount {{.Amount}} is not a valid unsigned integer.",
	CodePaymentOptionIncomplete: "Payment option is missing {{.Field}}.",
	CodeFilterInvalid:           "The filter expression is not valid.",
	CodePageTokenInvalid:        "The page token is not valid.",
	CodeNotFound:                "The requested record was not found.",
	CodeStorageWrite:            "The change could not be stored. Try again later.",
}

var ptBRMessages = map[Code]string{
	CodeUnknown:                 "Ocorreu um erro inesperado.",
	CodeUnauthorized:            "Somente o administrador do contrato pode executar este comando.",
	CodeStateRead:               "Não foi possível ler o administrador do contrato. Tente novamente mais tarde.",
	CodeCallerRequired:          "É necessário informar a identidade do chamador.",
	CodeCallerGrantInvalid:      "A credencial do chamador não é válida.",
	CodeCallerGrantExpired:      "A credencial do chamador expirou.",
	CodeCommandTypeUnknown:      "Tipo de comando desconhecido{{if .Type}} {{.Type}}{{end}}.",
	CodeCommandPayloadInvalid:   "O conteúdo do comando está malformado.",
	CodeInvalidAmount:           "O valor {{.Amount}} não é um inteiro sem sinal válido.",
	CodePaymentOptionIncomplete: "A opção de pagamento não informa {{.Field}}.",
	CodeFilterInvalid:           "A expressão de filtro não é válida.",
	CodePageTokenInvalid:        "O token de página não é válido.",
	CodeNotFound:                "O registro solicitado não foi encontrado.",
	CodeStorageWrite:            "Não foi possível gravar a alteração. Tente novamente mais tarde.",
}
