package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/telehealth-platform/internal/auth"
	"github.com/Leganyst/telehealth-platform/internal/model"
	"github.com/Leganyst/telehealth-platform/internal/repository"
	"github.com/Leganyst/telehealth-platform/internal/schedule"
	"github.com/Leganyst/telehealth-platform/internal/service"
)

// CalendarController — HTTP-адаптер календарного ядра.
type CalendarController struct {
	booking      *service.BookingService
	availability *service.AvailabilityService
	calendar     *service.CalendarService
	doctors      repository.DoctorRepository
	users        repository.UserRepository
}

func NewCalendarController(
	booking *service.BookingService,
	availability *service.AvailabilityService,
	calendar *service.CalendarService,
	doctors repository.DoctorRepository,
	users repository.UserRepository,
) *CalendarController {
	return &CalendarController{
		booking:      booking,
		availability: availability,
		calendar:     calendar,
		doctors:      doctors,
		users:        users,
	}
}

func (ctl *CalendarController) RegisterRoutes(router *gin.Engine, jwtSecret []byte) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api/v1")
	api.Use(auth.Middleware(jwtSecret))
	{
		api.GET("/doctors", ctl.listDoctors)
		api.GET("/doctors/:doctorId/slots", ctl.listSlots)
		api.GET("/doctors/:doctorId/calendar", ctl.doctorCalendar)
		api.GET("/doctors/:doctorId/availability", ctl.listBlocks)
		api.GET("/doctors/:doctorId/appointments", ctl.listAppointments)

		api.POST("/availability", ctl.addBlock)
		api.POST("/availability/toggle", ctl.toggleBlock)
		api.DELETE("/availability/:blockId", ctl.removeBlock)

		api.POST("/appointments", ctl.book)
		api.POST("/appointments/:appointmentId/cancel", ctl.cancel)
		api.POST("/appointments/:appointmentId/complete", ctl.complete)

		api.GET("/me/appointments", ctl.myAppointments)

		admin := api.Group("/admin")
		{
			admin.GET("/users", ctl.findUser)
			admin.PUT("/users/:userId/role", ctl.setUserRole)
		}
	}
}

type blockRequest struct {
	DoctorID  uuid.UUID `json:"doctorId" binding:"required"`
	StartTime time.Time `json:"startTime" binding:"required"`
	EndTime   time.Time `json:"endTime" binding:"required"`
}

type bookRequest struct {
	DoctorID  uuid.UUID `json:"doctorId" binding:"required"`
	PatientID uuid.UUID `json:"patientId" binding:"required"`
	StartTime time.Time `json:"startTime" binding:"required"`
	EndTime   time.Time `json:"endTime" binding:"required"`
	Type      string    `json:"type" binding:"required,oneof=video in-person"`
}

type intervalResponse struct {
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
}

type blockResponse struct {
	ID        uuid.UUID `json:"id"`
	DoctorID  uuid.UUID `json:"doctorId"`
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
	// Блокировка всегда "не доступен": она вырезает интервал
	// из поверхности бронирования.
	IsAvailable bool   `json:"isAvailable"`
	Recurrence  string `json:"recurrence"`
}

type appointmentResponse struct {
	ID          uuid.UUID `json:"id"`
	DoctorID    uuid.UUID `json:"doctorId"`
	PatientID   uuid.UUID `json:"patientId"`
	StartTime   time.Time `json:"startTime"`
	EndTime     time.Time `json:"endTime"`
	Type        string    `json:"type"`
	Status      string    `json:"status"`
	MeetingLink string    `json:"meetingLink,omitempty"`
}

func mapBlock(b *model.AvailabilityBlock) blockResponse {
	return blockResponse{
		ID:          b.ID,
		DoctorID:    b.DoctorID,
		StartTime:   b.StartsAt,
		EndTime:     b.EndsAt,
		IsAvailable: false,
		Recurrence:  string(b.Recurrence),
	}
}

func mapAppointment(a *model.Appointment) appointmentResponse {
	return appointmentResponse{
		ID:          a.ID,
		DoctorID:    a.DoctorID,
		PatientID:   a.PatientID,
		StartTime:   a.StartsAt,
		EndTime:     a.EndsAt,
		Type:        string(a.Type),
		Status:      string(a.Status),
		MeetingLink: a.MeetingLink,
	}
}

func (ctl *CalendarController) listDoctors(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("pageSize", "50"))
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 50
	}

	doctors, total, err := ctl.doctors.List(c.Request.Context(), size, (page-1)*size)
	if err != nil {
		writeError(c, err)
		return
	}

	type doctorResponse struct {
		ID          uuid.UUID `json:"id"`
		DisplayName string    `json:"displayName"`
		Specialty   string    `json:"specialty"`
	}
	resp := make([]doctorResponse, 0, len(doctors))
	for i := range doctors {
		resp = append(resp, doctorResponse{
			ID:          doctors[i].ID,
			DisplayName: doctors[i].DisplayName,
			Specialty:   doctors[i].Specialty,
		})
	}
	c.JSON(http.StatusOK, gin.H{"doctors": resp, "totalCount": total})
}

func (ctl *CalendarController) listSlots(c *gin.Context) {
	doctorID, window, ok := ctl.doctorWindow(c)
	if !ok {
		return
	}

	slots, err := ctl.booking.FreeSlots(c.Request.Context(), doctorID, window)
	if err != nil {
		writeError(c, err)
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("pageSize", "50"))
	paged := schedule.Paginate(slots, page, size)

	resp := make([]intervalResponse, 0, len(paged.Items))
	for _, s := range paged.Items {
		resp = append(resp, intervalResponse{StartTime: s.Start, EndTime: s.End})
	}
	c.JSON(http.StatusOK, gin.H{
		"doctorId":   doctorID,
		"slots":      resp,
		"page":       paged.Page,
		"pageSize":   paged.PageSize,
		"totalCount": paged.Total,
		"hasNext":    paged.HasNext,
	})
}

func (ctl *CalendarController) doctorCalendar(c *gin.Context) {
	doctorID, window, ok := ctl.doctorWindow(c)
	if !ok {
		return
	}

	events, err := ctl.calendar.DoctorCalendar(c.Request.Context(), doctorID, window)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"doctorId": doctorID, "events": events})
}

func (ctl *CalendarController) listBlocks(c *gin.Context) {
	doctorID, window, ok := ctl.doctorWindow(c)
	if !ok {
		return
	}

	blocks, err := ctl.availability.ListBlocks(c.Request.Context(), doctorID, window)
	if err != nil {
		writeError(c, err)
		return
	}

	resp := make([]blockResponse, 0, len(blocks))
	for i := range blocks {
		resp = append(resp, mapBlock(&blocks[i]))
	}
	c.JSON(http.StatusOK, gin.H{"doctorId": doctorID, "availability": resp})
}

func (ctl *CalendarController) listAppointments(c *gin.Context) {
	doctorID, window, ok := ctl.doctorWindow(c)
	if !ok {
		return
	}

	var statuses []model.AppointmentStatus
	if s := c.Query("status"); s != "" {
		statuses = append(statuses, model.AppointmentStatus(s))
	}

	appts, err := ctl.booking.ListDoctorAppointments(c.Request.Context(), doctorID, window, statuses)
	if err != nil {
		writeError(c, err)
		return
	}

	resp := make([]appointmentResponse, 0, len(appts))
	for i := range appts {
		resp = append(resp, mapAppointment(&appts[i]))
	}
	c.JSON(http.StatusOK, gin.H{"doctorId": doctorID, "appointments": resp})
}

func (ctl *CalendarController) addBlock(c *gin.Context) {
	identity, ok := ctl.identity(c)
	if !ok {
		return
	}

	var req blockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "bad_request", "error": err.Error()})
		return
	}

	block, err := ctl.availability.AddBlock(c.Request.Context(), identity, req.DoctorID,
		schedule.Interval{Start: req.StartTime, End: req.EndTime})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, mapBlock(block))
}

func (ctl *CalendarController) toggleBlock(c *gin.Context) {
	identity, ok := ctl.identity(c)
	if !ok {
		return
	}

	var req blockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "bad_request", "error": err.Error()})
		return
	}

	block, removed, err := ctl.availability.ToggleBlock(c.Request.Context(), identity, req.DoctorID,
		schedule.Interval{Start: req.StartTime, End: req.EndTime})
	if err != nil {
		writeError(c, err)
		return
	}
	if removed {
		c.JSON(http.StatusOK, gin.H{"removed": true})
		return
	}
	c.JSON(http.StatusCreated, mapBlock(block))
}

func (ctl *CalendarController) removeBlock(c *gin.Context) {
	identity, ok := ctl.identity(c)
	if !ok {
		return
	}

	blockID, err := uuid.Parse(c.Param("blockId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "bad_request", "error": "invalid block id"})
		return
	}

	if err := ctl.availability.RemoveBlock(c.Request.Context(), identity, blockID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": true})
}

func (ctl *CalendarController) book(c *gin.Context) {
	identity, ok := ctl.identity(c)
	if !ok {
		return
	}

	var req bookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "bad_request", "error": err.Error()})
		return
	}

	appt, err := ctl.booking.Book(c.Request.Context(), identity, req.DoctorID, req.PatientID,
		schedule.Interval{Start: req.StartTime, End: req.EndTime},
		model.AppointmentType(req.Type))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, mapAppointment(appt))
}

func (ctl *CalendarController) cancel(c *gin.Context) {
	identity, ok := ctl.identity(c)
	if !ok {
		return
	}

	appointmentID, err := uuid.Parse(c.Param("appointmentId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "bad_request", "error": "invalid appointment id"})
		return
	}

	appt, err := ctl.booking.Cancel(c.Request.Context(), identity, appointmentID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapAppointment(appt))
}

func (ctl *CalendarController) complete(c *gin.Context) {
	identity, ok := ctl.identity(c)
	if !ok {
		return
	}

	appointmentID, err := uuid.Parse(c.Param("appointmentId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "bad_request", "error": "invalid appointment id"})
		return
	}

	appt, err := ctl.booking.Complete(c.Request.Context(), identity, appointmentID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapAppointment(appt))
}

// myAppointments — записи субъекта запроса: пациенту его приёмы,
// врачу — его календарь.
func (ctl *CalendarController) myAppointments(c *gin.Context) {
	identity, ok := ctl.identity(c)
	if !ok {
		return
	}
	window, ok := ctl.window(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("pageSize", "50"))
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 50
	}

	appts, total, err := ctl.booking.ListMyAppointments(c.Request.Context(), identity, window, size, (page-1)*size)
	if err != nil {
		writeError(c, err)
		return
	}

	resp := make([]appointmentResponse, 0, len(appts))
	for i := range appts {
		resp = append(resp, mapAppointment(&appts[i]))
	}
	c.JSON(http.StatusOK, gin.H{"appointments": resp, "totalCount": total})
}

// findUser — административный поиск пользователя по email.
func (ctl *CalendarController) findUser(c *gin.Context) {
	identity, ok := ctl.identity(c)
	if !ok {
		return
	}
	if !identity.IsAdmin() {
		writeError(c, service.ErrNotPermitted)
		return
	}

	email := c.Query("email")
	if email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"code": "bad_request", "error": "email is required"})
		return
	}

	user, err := ctl.users.FindByEmail(c.Request.Context(), email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeError(c, service.ErrNotFound)
			return
		}
		writeError(c, err)
		return
	}

	// Роль может быть не назначена — это не ошибка.
	role, err := ctl.users.GetRole(c.Request.Context(), user.ID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":          user.ID,
		"email":       user.Email,
		"displayName": user.DisplayName(),
		"role":        role,
	})
}

type setRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=patient doctor admin"`
}

// setUserRole — административное назначение роли пользователю.
func (ctl *CalendarController) setUserRole(c *gin.Context) {
	identity, ok := ctl.identity(c)
	if !ok {
		return
	}
	if !identity.IsAdmin() {
		writeError(c, service.ErrNotPermitted)
		return
	}

	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "bad_request", "error": "invalid user id"})
		return
	}

	var req setRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "bad_request", "error": err.Error()})
		return
	}

	if _, err := ctl.users.GetByID(c.Request.Context(), userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeError(c, service.ErrNotFound)
			return
		}
		writeError(c, err)
		return
	}

	if err := ctl.users.SetRole(c.Request.Context(), userID, req.Role); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"userId": userID, "role": req.Role})
}

func (ctl *CalendarController) identity(c *gin.Context) (auth.Identity, bool) {
	identity, ok := auth.FromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"code": "unauthorized", "error": auth.ErrNoIdentity.Error()})
		return auth.Identity{}, false
	}
	return identity, true
}

// window разбирает окно запроса из query-параметров from/to (RFC3339).
func (ctl *CalendarController) window(c *gin.Context) (schedule.Interval, bool) {
	from, err := time.Parse(time.RFC3339, c.Query("from"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "bad_request", "error": "invalid 'from' date"})
		return schedule.Interval{}, false
	}
	to, err := time.Parse(time.RFC3339, c.Query("to"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "bad_request", "error": "invalid 'to' date"})
		return schedule.Interval{}, false
	}

	window, err := schedule.NewInterval(from, to)
	if err != nil {
		writeError(c, err)
		return schedule.Interval{}, false
	}
	return window, true
}

// doctorWindow разбирает doctorId из пути и окно запроса из from/to.
func (ctl *CalendarController) doctorWindow(c *gin.Context) (uuid.UUID, schedule.Interval, bool) {
	doctorID, err := uuid.Parse(c.Param("doctorId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "bad_request", "error": "invalid doctor id"})
		return uuid.Nil, schedule.Interval{}, false
	}
	window, ok := ctl.window(c)
	if !ok {
		return uuid.Nil, schedule.Interval{}, false
	}
	return doctorID, window, true
}
