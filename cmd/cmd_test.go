package cmd

import (
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

const testConfig = `
environment: test
database:
  source: postgres://localhost:5432/brokerage_test
security:
  jwt_secret: file-secret
  encryption_key: 000102030405060708090a0b0c0d0e0f
  access_token_minutes: 5
redis:
  enabled: false
`

var _ = Describe("loadConfig", func() {
	var dir string

	unset := func(keys ...string) {
		for _, k := range keys {
			prev, had := os.LookupEnv(k)
			Expect(os.Unsetenv(k)).To(Succeed())
			DeferCleanup(func() {
				if had {
					_ = os.Setenv(k, prev)
				}
			})
		}
	}

	BeforeEach(func() {
		unset("APP_ENV", "DOCKER_ENV", "ENV_SECURITY_JWT_SECRET")
		dir = GinkgoT().TempDir()
	})

	write := func(body string) {
		Expect(os.WriteFile(filepath.Join(dir, "config.yml"), []byte(body), 0o600)).To(Succeed())
	}

	It("reads config.yml and fills defaults", func() {
		write(testConfig)

		cfg, err := loadConfig(dir)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Environment).To(Equal("test"))
		Expect(cfg.Server.Port).To(Equal(8080))
		Expect(cfg.Security.AccessTTL()).To(Equal(5 * time.Minute))
		Expect(cfg.Security.RefreshTokenMinutes).To(Equal(10080))
		Expect(cfg.Observability.Logging.Level).To(Equal("info"))
		Expect(cfg.Worker.PurgeSchedule).To(Equal("@every 15m"))
	})

	It("lets ENV_ variables override file values", func() {
		write(testConfig)
		GinkgoT().Setenv("ENV_SECURITY_JWT_SECRET", "env-secret")

		cfg, err := loadConfig(dir)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Security.JWTSecret).To(Equal("env-secret"))
	})

	It("rejects an empty signing secret", func() {
		write(`
database:
  source: postgres://localhost:5432/brokerage_test
security:
  jwt_secret: ""
  encryption_key: 000102030405060708090a0b0c0d0e0f
`)
		_, err := loadConfig(dir)
		Expect(err).To(HaveOccurred())
	})

	It("rejects an encryption key of the wrong size", func() {
		write(`
database:
  source: postgres://localhost:5432/brokerage_test
security:
  jwt_secret: s
  encryption_key: 0001
`)
		_, err := loadConfig(dir)
		Expect(err).To(MatchError(ContainSubstring("encryption_key")))
	})

	It("fails when no config file exists", func() {
		_, err := loadConfig(dir)
		Expect(err).To(MatchError(ContainSubstring("error reading config")))
	})
})

var _ = Describe("root command", func() {
	It("registers every subcommand", func() {
		var names []string
		for _, c := range rootCmd.Commands() {
			names = append(names, c.Name())
		}
		Expect(names).To(ContainElements("server", "migrate", "seed", "worker", "event"))
	})

	It("exposes the rollback and clear flags", func() {
		Expect(migrateCmd.Flags().Lookup("rollback")).NotTo(BeNil())
		Expect(seedCmd.Flags().Lookup("clear")).NotTo(BeNil())
		Expect(workerCmd.Flags().Lookup("schedule")).NotTo(BeNil())
	})
})
