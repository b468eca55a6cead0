package di_test

import (
	"errors"
	"testing"

	"github.com/devantler-tech/rollctl/pkg/di"
	"github.com/devantler-tech/rollctl/pkg/k8s"
	"github.com/samber/do/v2"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/client-go/kubernetes/fake"
)

var (
	errHandler = errors.New("handler error")
	errModule  = errors.New("module error")
)

// fakeClients provides a clients factory that records the kubeconfig and
// context it was asked for.
func fakeClients(requested *[]string) di.Module {
	return func(injector di.Injector) error {
		do.Provide(injector, func(di.Injector) (k8s.ClientsFactory, error) {
			return func(kubeconfig, context string) (*k8s.Clients, error) {
				*requested = append(*requested, kubeconfig+"@"+context)

				return &k8s.Clients{Kube: fake.NewClientset()}, nil
			}, nil
		})

		return nil
	}
}

func TestRuntime_Invoke(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		modules     []string
		failModule  string
		handlerErr  error
		wantErr     error
		wantTrace   []string
		wantHandled bool
	}{
		{
			name:        "modules run in order before the handler",
			modules:     []string{"timer", "clients"},
			wantTrace:   []string{"timer", "clients"},
			wantHandled: true,
		},
		{
			name:        "nil modules are skipped",
			modules:     []string{"timer", "", "clients"},
			wantTrace:   []string{"timer", "clients"},
			wantHandled: true,
		},
		{
			name:       "module error stops the invocation",
			modules:    []string{"timer", "clients", "docker"},
			failModule: "clients",
			wantErr:    errModule,
			wantTrace:  []string{"timer", "clients"},
		},
		{
			name:        "handler error is returned",
			modules:     []string{"timer"},
			handlerErr:  errHandler,
			wantErr:     errHandler,
			wantTrace:   []string{"timer"},
			wantHandled: true,
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			var trace []string

			modules := make([]di.Module, 0, len(testCase.modules))
			for _, name := range testCase.modules {
				if name == "" {
					modules = append(modules, nil)

					continue
				}

				modules = append(modules, func(di.Injector) error {
					trace = append(trace, name)
					if name == testCase.failModule {
						return errModule
					}

					return nil
				})
			}

			handled := false
			err := di.New(modules...).Invoke(func(di.Injector) error {
				handled = true

				return testCase.handlerErr
			})

			if testCase.wantErr != nil {
				require.ErrorIs(t, err, testCase.wantErr)
			} else {
				require.NoError(t, err)
			}

			assert.Equal(t, testCase.wantTrace, trace)
			assert.Equal(t, testCase.wantHandled, handled)
		})
	}
}

func TestRuntime_Invoke_ExtraModulesFillMissingDependencies(t *testing.T) {
	t.Parallel()

	var requested []string

	runtime := di.New(func(injector di.Injector) error {
		do.ProvideValue(injector, "shop")

		return nil
	})

	err := runtime.Invoke(func(injector di.Injector) error {
		namespace := do.MustInvoke[string](injector)

		factory, err := di.ResolveKubeClientsFactory(injector)
		if err != nil {
			return err
		}

		clients, err := factory("/tmp/kubeconfig", namespace)
		if err != nil {
			return err
		}

		assert.NotNil(t, clients.Kube)

		return nil
	}, fakeClients(&requested))

	require.NoError(t, err)
	assert.Equal(t, []string{"/tmp/kubeconfig@shop"}, requested)
}

func TestRuntime_Invoke_MissingDependency(t *testing.T) {
	t.Parallel()

	err := di.New().Invoke(func(injector di.Injector) error {
		_, err := di.ResolveKubeClientsFactory(injector)

		return err
	})

	require.ErrorContains(t, err, "resolve kube clients factory dependency")
}

// closer records when the injector shuts it down.
type closer struct {
	closed *int
}

func (c *closer) Shutdown() error {
	*c.closed++

	return nil
}

func TestRuntime_Invoke_FreshInjectorPerCall(t *testing.T) {
	t.Parallel()

	built, closed := 0, 0

	runtime := di.New(func(injector di.Injector) error {
		do.Provide(injector, func(di.Injector) (*closer, error) {
			built++

			return &closer{closed: &closed}, nil
		})

		return nil
	})

	for range 2 {
		err := runtime.Invoke(func(injector di.Injector) error {
			_, err := do.Invoke[*closer](injector)

			return err
		})
		require.NoError(t, err)
	}

	assert.Equal(t, 2, built)
	assert.Equal(t, 2, closed)
}

func TestRunEWithRuntime(t *testing.T) {
	t.Parallel()

	var requested []string

	runE := di.RunEWithRuntime(di.New(fakeClients(&requested)), func(cmd *cobra.Command, injector di.Injector) error {
		factory, err := di.ResolveKubeClientsFactory(injector)
		if err != nil {
			return err
		}

		_, err = factory(cmd.Name(), "kind-rollctl")

		return err
	})

	require.NoError(t, runE(&cobra.Command{Use: "status"}, nil))
	assert.Equal(t, []string{"status@kind-rollctl"}, requested)
}

func TestRunEWithRuntime_HandlerError(t *testing.T) {
	t.Parallel()

	runE := di.RunEWithRuntime(di.New(), func(*cobra.Command, di.Injector) error {
		return errHandler
	})

	require.ErrorIs(t, runE(&cobra.Command{Use: "abort"}, nil), errHandler)
}

func TestRunEWithArgs_PassesArguments(t *testing.T) {
	t.Parallel()

	var received []string

	runE := di.RunEWithArgs(di.New(), func(_ *cobra.Command, args []string, _ di.Injector) error {
		received = args

		return nil
	})

	require.NoError(t, runE(&cobra.Command{Use: "set-image"}, []string{"checkout", "app=shop:2"}))
	assert.Equal(t, []string{"checkout", "app=shop:2"}, received)
}
