package get_available_slots

// Request модель запроса доступных слотов на дату
type Request struct {
	Date string // Формат "2006-01-02"
}

// SlotInfo информация о доступном слоте
type SlotInfo struct {
	ID        int64  `json:"id"`
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Capacity  int    `json:"capacity"`
}

// Response модель ответа со списком доступных слотов
type Response struct {
	Date  string     `json:"date"`
	Slots []SlotInfo `json:"slots"`
}
