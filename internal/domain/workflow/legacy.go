package workflow

// LegacyStatusMap folds the historical status vocabulary (Portuguese and
// English strings written by older clients) onto canonical statuses.
//
// Quote-centric statuses have no canonical equivalent since the requester no
// longer approves quotes. An approved quote folds to Assigned; every other
// quote state folds to Cancelled. Keep this asymmetry as data.
var LegacyStatusMap = map[string]Status{
	// Portuguese
	"Solicitado":             StatusRequested,
	"Pendente":               StatusRequested,
	"Em análise":             StatusRequested,
	"Aguardando orçamento":   StatusRequested,
	"Orçamento enviado":      StatusCancelled,
	"Aguardando aprovação":   StatusCancelled,
	"Orçamento aprovado":     StatusAssigned,
	"Orçamento rejeitado":    StatusCancelled,
	"Orçamento expirado":     StatusCancelled,
	"Atribuído":              StatusAssigned,
	"Aguardando confirmação": StatusAwaitingProfessionalConfirmation,
	"Aceito":                 StatusAccepted,
	"Recusado":               StatusDeclined,
	"Data proposta":          StatusAccepted,
	"Data definida":          StatusDateSet,
	"Agendado":               StatusDateSet,
	"Em progresso":           StatusInProgress,
	"Em execução":            StatusInProgress,
	"Aguardando finalização": StatusAwaitingCompletion,
	"Aguardando pagamento":   StatusAwaitingCompletion,
	"Pagamento feito":        StatusPaymentMade,
	"Pago":                   StatusPaymentMade,
	"Concluído":              StatusCompleted,
	"Finalizado":             StatusCompleted,
	"Cancelado":              StatusCancelled,

	// English
	"Pending":                 StatusRequested,
	"Quote Requested":         StatusRequested,
	"Quote Sent":              StatusCancelled,
	"Awaiting Quote Approval": StatusCancelled,
	"Quote Approved":          StatusAssigned,
	"Quote Rejected":          StatusCancelled,
	"Quote Expired":           StatusCancelled,
	"Awaiting Confirmation":   StatusAwaitingProfessionalConfirmation,
	"Date Proposed":           StatusAccepted,
	"Scheduled":               StatusDateSet,
	"In Progress":             StatusInProgress,
	"Awaiting Payment":        StatusAwaitingCompletion,
	"Paid":                    StatusPaymentMade,
	"Finished":                StatusCompleted,
	"Canceled":                StatusCancelled,
}
