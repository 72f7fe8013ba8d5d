package analyzer

// Keyword vocabularies for category signals. Matching is lowercase
// substring over the note body; Spanish variants are included because
// mixed-language vaults are common.

var projectKeywords = []string{
	"deadline", "milestone", "deliverable", "sprint", "launch",
	"due date", "entrega", "objetivo", "kickoff", "roadmap",
	"action item", "next step", "proyecto", "client", "cliente",
}

var areaKeywords = []string{
	"weekly", "monthly", "daily", "recurring", "routine", "regular",
	"ongoing", "maintenance", "standing", "cadence", "responsibility",
	"habit", "review", "seguimiento", "rutina",
}

var resourceKeywords = []string{
	"reference", "guide", "tutorial", "documentation", "knowledge base",
	"best practices", "principles", "concepts", "theory", "fundamentals",
	"cheatsheet", "how to", "referencia", "guía", "apuntes",
}

var archiveKeywords = []string{
	"completado", "finished", "done", "completed", "finalizado",
	"obsoleto", "deprecated", "old", "antiguo", "viejo",
	"delivered", "closed", "concluded", "archived",
}

var urgencyKeywords = []string{
	"urgent", "urgente", "asap", "immediately", "critical", "emergency",
	"priority", "deadline", "overdue", "late", "time-sensitive",
	"pressing", "crucial", "due today", "due tomorrow", "this week",
	"end of day", "eod", "must do", "required by",
}

var completedStatusValues = []string{
	"done", "completed", "complete", "finished", "archived",
	"completado", "finalizado", "cerrado", "closed",
}

var activeStatusValues = []string{
	"active", "in progress", "in-progress", "ongoing", "current",
	"wip", "doing", "activo", "en progreso", "pendiente", "pending",
}
