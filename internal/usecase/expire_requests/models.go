package expire_requests

// Response модель результата одного прохода sweep'а
type Response struct {
	// ExpiredIDs заявки, помеченные expired этим проходом
	ExpiredIDs []int64

	// Skipped заявки, чей проход не удался или которые разрешились
	// параллельно; будут подхвачены следующим проходом
	Skipped int
}
