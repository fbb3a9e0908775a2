package main

import (
	"log"
	"os"

	"github.com/jmoiron/sqlx"

	"github.com/shepherd-app/shepherd/core"
	"github.com/shepherd-app/shepherd/core/member"
	"github.com/shepherd-app/shepherd/core/org"
	"github.com/shepherd-app/shepherd/core/student"
	emailsvc "github.com/shepherd-app/shepherd/services/email"
	logsvc "github.com/shepherd-app/shepherd/services/logger"
	"github.com/shepherd-app/shepherd/storage/database"
	"github.com/shepherd-app/shepherd/storage/database/kvdb"
	"github.com/shepherd-app/shepherd/storage/kv"
)

var logger *log.Logger

func main() {
	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	conf := core.NewConfig()

	// set up storage. The postgres store is opened unmigrated so that `migrate` controls the schema.
	var (
		store kv.Store
		sqlDB *sqlx.DB
		err   error
	)
	if conf.Storage.Backend == kv.BackendPostgres {
		sqlDB, err = database.Open(conf.Storage.DatabaseURL)
		errAndDie(err)
		store = kv.NewPostgresFromDB(sqlDB)
	} else {
		store, err = kv.Open(conf.Storage)
		errAndDie(err)
	}
	db := kvdb.Open(store, kvdb.Options{Seed: conf.Storage.Seed, SeedPassword: conf.Storage.SeedPassword})

	// CLI notifications are logged, never sent
	mailSvc := emailsvc.NewConsoleService(logsvc.NewConsoleLogger(logger, conf.Debug))
	mbrSvc := member.NewService(kvdb.NewMemberRepository(db), mailSvc)

	// start CLI
	cli := commandLine{
		db:       db,
		sqlDB:    sqlDB,
		members:  mbrSvc,
		orgs:     org.NewService(kvdb.NewOrgRepository(db), mbrSvc, mailSvc),
		students: student.NewService(kvdb.NewStudentRepository(db)),
	}
	err = cli.run(os.Args)
	if cerr := db.Close(); cerr != nil {
		logger.Printf("closing storage: %s", cerr)
	}
	if err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
