package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"

	echoapi "github.com/jihokim/haksa/apps/api/echo"
	"github.com/jihokim/haksa/core"
	"github.com/jihokim/haksa/core/class"
	"github.com/jihokim/haksa/core/consultation"
	"github.com/jihokim/haksa/core/feedback"
	"github.com/jihokim/haksa/core/grades"
	"github.com/jihokim/haksa/core/notification"
	"github.com/jihokim/haksa/core/student"
	"github.com/jihokim/haksa/core/user"
	emailsvc "github.com/jihokim/haksa/services/email"
	logsvc "github.com/jihokim/haksa/services/logger"
	"github.com/jihokim/haksa/storage/database"
	gormrepos "github.com/jihokim/haksa/storage/database/gormdb"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	// set up DB
	db, err := setUpDB(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService()
	} else {
		mailSvc = emailsvc.NewSendgridService(logger)
	}

	usrSvc := user.NewService(gormrepos.NewUserRepository(db), mailSvc, conf)
	classSvc := class.NewService(gormrepos.NewClassRepository(db))
	studentSvc := student.NewService(gormrepos.NewStudentRepository(db), classSvc)
	notifSvc := notification.NewService(gormrepos.NewNotificationRepository(db))
	feedbackSvc := feedback.NewService(gormrepos.NewFeedbackRepository(db), studentSvc, notifSvc, mailSvc, logger)
	gradesSvc := grades.NewService(gormrepos.NewGradeRepository(db), studentSvc)
	consultSvc := consultation.NewService(gormrepos.NewConsultationRepository(db), studentSvc, notifSvc, logger)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	core.ParseEmailTemplates(logger)

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	go func() {
		if err = http.ListenAndServe(conf.Server.DebugAddr, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:            conf,
			Logger:          logger,
			UserSvc:         usrSvc,
			StudentSvc:      studentSvc,
			ClassSvc:        classSvc,
			FeedbackSvc:     feedbackSvc,
			GradesSvc:       gradesSvc,
			ConsultationSvc: consultSvc,
			NotificationSvc: notifSvc,
			Validate:        validate,
			Translator:      translator,
		},
	)

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

func setUpDB(conf *core.Config) (*gorm.DB, error) {
	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}
	if err = database.Ping(db); err != nil {
		return nil, err
	}
	if err = database.Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}
