package util

type Envelope map[string]any

func Error(message string) Envelope {
	return Envelope{"error": message}
}

func Message(message string) Envelope {
	return Envelope{"message": message}
}
