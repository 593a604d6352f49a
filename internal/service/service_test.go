package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/Leganyst/telehealth-platform/internal/auth"
	"github.com/Leganyst/telehealth-platform/internal/model"
	"github.com/Leganyst/telehealth-platform/internal/notify"
	"github.com/Leganyst/telehealth-platform/internal/repository"
	"github.com/Leganyst/telehealth-platform/internal/schedule"
)

// Схема для sqlite: postgres-специфика моделей (uuid, gen_random_uuid)
// в тестах заменяется на TEXT-колонки.
var testSchema = []string{
	`CREATE TABLE users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL,
		first_name TEXT,
		last_name TEXT,
		contact_phone TEXT,
		note TEXT,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE patients (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		comment TEXT,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE doctors (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		display_name TEXT NOT NULL,
		specialty TEXT,
		description TEXT,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE doctor_schedules (
		id TEXT PRIMARY KEY,
		doctor_id TEXT NOT NULL,
		start_date DATE,
		end_date DATE,
		time_zone TEXT,
		rules TEXT,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE availability_blocks (
		id TEXT PRIMARY KEY,
		doctor_id TEXT NOT NULL,
		starts_at DATETIME NOT NULL,
		ends_at DATETIME NOT NULL,
		recurrence TEXT NOT NULL,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE appointments (
		id TEXT PRIMARY KEY,
		doctor_id TEXT NOT NULL,
		patient_id TEXT NOT NULL,
		starts_at DATETIME NOT NULL,
		ends_at DATETIME NOT NULL,
		type TEXT NOT NULL,
		status TEXT NOT NULL,
		meeting_link TEXT,
		cancelled_at DATETIME,
		comment TEXT,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE events (
		id TEXT PRIMARY KEY,
		event_type TEXT NOT NULL,
		created_at DATETIME,
		user_id TEXT,
		appointment_id TEXT,
		block_id TEXT,
		details TEXT
	)`,
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	// Одно соединение, иначе каждый коннект пула получает свою
	// пустую in-memory базу.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	for _, stmt := range testSchema {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}
	return db
}

// testEnv поднимает полный стек сервисов поверх sqlite с одним врачом
// и одним пациентом. Рабочие часы — будни 09:00–17:00, слот 30 минут.
type testEnv struct {
	db *gorm.DB

	booking      *BookingService
	availability *AvailabilityService
	calendar     *CalendarService
	resolver     *schedule.Resolver

	doctor  model.Doctor
	patient model.Patient

	doctorIdentity  auth.Identity
	patientIdentity auth.Identity
	adminIdentity   auth.Identity
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := newTestDB(t)

	apptRepo := repository.NewGormAppointmentRepository(db)
	blockRepo := repository.NewGormAvailabilityRepository(db)
	doctorRepo := repository.NewGormDoctorRepository(db)
	patientRepo := repository.NewGormPatientRepository(db)
	userRepo := repository.NewGormUserRepository(db)
	scheduleRepo := repository.NewGormScheduleRepository(db)
	eventRepo := repository.NewGormEventRepository(db)

	rules, err := schedule.ParseHoursTemplate("1,2,3,4,5=09:00-17:00")
	if err != nil {
		t.Fatalf("parse hours template: %v", err)
	}
	hours := NewRepoHoursSource(scheduleRepo, rules)
	occupied := NewRepoOccupiedSource(blockRepo, apptRepo)
	resolver := schedule.NewResolver(hours, occupied, 30*time.Minute, time.UTC)

	locker := NewDoctorLocker()
	log := zap.NewNop()
	links := notify.RoomLinkIssuer{BaseURL: "https://meet.test"}

	env := &testEnv{
		db:       db,
		resolver: resolver,
		booking: NewBookingService(
			db, apptRepo, patientRepo, doctorRepo, eventRepo,
			resolver, locker, notify.NopPublisher{}, links, log,
		),
		availability: NewAvailabilityService(
			blockRepo, apptRepo, doctorRepo, eventRepo, resolver, locker, log,
		),
		calendar: NewCalendarService(resolver, blockRepo, apptRepo, patientRepo, userRepo),
	}

	doctorUser := model.User{ID: uuid.New(), Email: "doctor@clinic.test", FirstName: "Anna", LastName: "Ivanova"}
	patientUser := model.User{ID: uuid.New(), Email: "patient@clinic.test", FirstName: "Pyotr", LastName: "Sidorov"}
	for _, u := range []*model.User{&doctorUser, &patientUser} {
		if err := db.Create(u).Error; err != nil {
			t.Fatalf("seed user: %v", err)
		}
	}

	env.doctor = model.Doctor{ID: uuid.New(), UserID: doctorUser.ID, DisplayName: "Dr. Anna Ivanova", Specialty: "Therapist"}
	if err := db.Create(&env.doctor).Error; err != nil {
		t.Fatalf("seed doctor: %v", err)
	}
	env.patient = model.Patient{ID: uuid.New(), UserID: patientUser.ID}
	if err := db.Create(&env.patient).Error; err != nil {
		t.Fatalf("seed patient: %v", err)
	}

	env.doctorIdentity = auth.Identity{UserID: doctorUser.ID, Role: auth.RoleDoctor}
	env.patientIdentity = auth.Identity{UserID: patientUser.ID, Role: auth.RolePatient}
	env.adminIdentity = auth.Identity{UserID: uuid.New(), Role: auth.RoleAdmin}
	return env
}

// seedPatient добавляет ещё одного пациента с собственным пользователем.
func (e *testEnv) seedPatient(t *testing.T, email string) (model.Patient, auth.Identity) {
	t.Helper()
	user := model.User{ID: uuid.New(), Email: email}
	if err := e.db.Create(&user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	patient := model.Patient{ID: uuid.New(), UserID: user.ID}
	if err := e.db.Create(&patient).Error; err != nil {
		t.Fatalf("seed patient: %v", err)
	}
	return patient, auth.Identity{UserID: user.ID, Role: auth.RolePatient}
}

// seedDoctor добавляет ещё одного врача с собственным пользователем.
func (e *testEnv) seedDoctor(t *testing.T, email, name string) (model.Doctor, auth.Identity) {
	t.Helper()
	user := model.User{ID: uuid.New(), Email: email}
	if err := e.db.Create(&user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	doctor := model.Doctor{ID: uuid.New(), UserID: user.ID, DisplayName: name}
	if err := e.db.Create(&doctor).Error; err != nil {
		t.Fatalf("seed doctor: %v", err)
	}
	return doctor, auth.Identity{UserID: user.ID, Role: auth.RoleDoctor}
}

func (e *testEnv) countAppointments(t *testing.T, status model.AppointmentStatus) int64 {
	t.Helper()
	var count int64
	if err := e.db.Model(&model.Appointment{}).Where("status = ?", status).Count(&count).Error; err != nil {
		t.Fatalf("count appointments: %v", err)
	}
	return count
}

func (e *testEnv) countBlocks(t *testing.T) int64 {
	t.Helper()
	var count int64
	if err := e.db.Model(&model.AvailabilityBlock{}).Count(&count).Error; err != nil {
		t.Fatalf("count blocks: %v", err)
	}
	return count
}

// slot возвращает выровненный 30-минутный интервал во вторник 7 января 2025.
func slot(t *testing.T, hour, min int) schedule.Interval {
	t.Helper()
	start := time.Date(2025, 1, 7, hour, min, 0, 0, time.UTC)
	return schedule.Interval{Start: start, End: start.Add(30 * time.Minute)}
}

// span возвращает произвольный интервал во вторник 7 января 2025.
func span(t *testing.T, fromHour, fromMin, toHour, toMin int) schedule.Interval {
	t.Helper()
	return schedule.Interval{
		Start: time.Date(2025, 1, 7, fromHour, fromMin, 0, 0, time.UTC),
		End:   time.Date(2025, 1, 7, toHour, toMin, 0, 0, time.UTC),
	}
}

// tuesday возвращает окно всего вторника 7 января 2025.
func tuesday(t *testing.T) schedule.Interval {
	t.Helper()
	return schedule.Interval{
		Start: time.Date(2025, 1, 7, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 1, 8, 0, 0, 0, 0, time.UTC),
	}
}
