package configmanager_test

import (
	"testing"

	configmanager "github.com/devantler-tech/rollctl/pkg/io/configmanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	valid := configmanager.NewConfig()
	require.NoError(t, valid.Validate())

	invalid := configmanager.NewConfig()
	invalid.APIVersion = "rollctl.io/v1beta1"
	invalid.Connection.Timeout = metav1.Duration{Duration: -1}
	invalid.Controller.Concurrency = -2

	err := invalid.Validate()

	require.ErrorIs(t, err, configmanager.ErrInvalidAPIVersion)
	require.ErrorIs(t, err, configmanager.ErrNegativeValue)
	assert.Contains(t, err.Error(), "connection.timeout")
	assert.Contains(t, err.Error(), "controller.concurrency")
}

func TestConfig_ExpandEnv(t *testing.T) {
	t.Setenv("ROLLCTL_TEST_KUBECONFIG", "/etc/rollctl/kubeconfig")

	cfg := configmanager.NewConfig()
	cfg.Connection.Kubeconfig = "${ROLLCTL_TEST_KUBECONFIG}"
	cfg.Controller.SystemNamespace = "${ROLLCTL_TEST_UNSET:-rollctl-system}"
	cfg.Controller.LogLevel = "${ROLLCTL_TEST_KUBECONFIG}"

	cfg.ExpandEnv()

	assert.Equal(t, "/etc/rollctl/kubeconfig", cfg.Connection.Kubeconfig)
	assert.Equal(t, "rollctl-system", cfg.Controller.SystemNamespace)
	assert.Equal(t, "${ROLLCTL_TEST_KUBECONFIG}", cfg.Controller.LogLevel)
}
