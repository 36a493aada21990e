package config_test

import (
	"os"

	"valuegrade/internal/config"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func setEnv(key, value string) {
	prev, existed := os.LookupEnv(key)
	Expect(os.Setenv(key, value)).To(Succeed())
	DeferCleanup(func() {
		if existed {
			os.Setenv(key, prev)
			return
		}
		os.Unsetenv(key)
	})
}

func unsetEnv(key string) {
	prev, existed := os.LookupEnv(key)
	Expect(os.Unsetenv(key)).To(Succeed())
	DeferCleanup(func() {
		if existed {
			os.Setenv(key, prev)
		}
	})
}

var _ = Describe("LoadConfig", func() {
	It("reads keys from the environment", func() {
		setEnv("DART_API_KEY", "dart-key")
		setEnv("OPENAI_API_KEY", "openai-key")
		setEnv("OPENAI_MODEL", "gpt-test")

		cfg, err := config.LoadConfig()
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.DartAPIKey).To(Equal("dart-key"))
		Expect(cfg.OpenAIAPIKey).To(Equal("openai-key"))
		Expect(cfg.OpenAIModel).To(Equal("gpt-test"))
	})

	It("falls back to defaults", func() {
		unsetEnv("OPENAI_MODEL")
		unsetEnv("CORPCODE_PATH")
		unsetEnv("PORT")

		cfg, err := config.LoadConfig()
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.OpenAIModel).To(Equal("gpt-4o-mini"))
		Expect(cfg.CorpCodePath).To(Equal("CORPCODE.xml"))
		Expect(cfg.Port).To(Equal("8080"))
	})
})

var _ = Describe("Validate", func() {
	It("passes when required keys are present", func() {
		cfg := &config.Config{DartAPIKey: "a", OpenAIAPIKey: "b"}
		Expect(cfg.Validate(config.DartAPIKeyEnv, config.OpenAIAPIKeyEnv)).To(Succeed())
	})

	It("names the missing key", func() {
		cfg := &config.Config{DartAPIKey: "a"}
		err := cfg.Validate(config.DartAPIKeyEnv, config.OpenAIAPIKeyEnv)
		Expect(err).To(MatchError(config.ErrMissingKey))
		Expect(err.Error()).To(ContainSubstring("OPENAI_API_KEY"))
	})
})
