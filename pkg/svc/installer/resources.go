package installer

import (
	v1alpha1 "github.com/devantler-tech/rollctl/pkg/apis/rollout/v1alpha1"
	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	rbacv1 "k8s.io/api/rbac/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/intstr"
	"k8s.io/utils/ptr"
)

// ControllerName names the controller's Deployment, ServiceAccount and RBAC objects.
const ControllerName = "rollctl-controller"

const (
	probePort   = 8081
	metricsPort = 8080
	journalDir  = "/var/lib/rollctl"
)

func serviceAccount(namespace string) *corev1.ServiceAccount {
	return &corev1.ServiceAccount{
		ObjectMeta: metav1.ObjectMeta{Name: ControllerName, Namespace: namespace, Labels: managedLabels()},
	}
}

func clusterRole() *rbacv1.ClusterRole {
	verbsRW := []string{"get", "list", "watch", "create", "update", "patch", "delete"}

	return &rbacv1.ClusterRole{
		ObjectMeta: metav1.ObjectMeta{Name: ControllerName, Labels: managedLabels()},
		Rules: []rbacv1.PolicyRule{
			{
				APIGroups: []string{v1alpha1.Group},
				Resources: []string{v1alpha1.Resource, v1alpha1.Resource + "/status"},
				Verbs:     []string{"get", "list", "watch", "update", "patch"},
			},
			{APIGroups: []string{"apps"}, Resources: []string{"deployments"}, Verbs: verbsRW},
			{APIGroups: []string{""}, Resources: []string{"pods"}, Verbs: []string{"get", "list", "watch"}},
			{
				APIGroups: []string{""},
				Resources: []string{"services"},
				Verbs:     []string{"get", "list", "watch", "update", "patch"},
			},
			{APIGroups: []string{"coordination.k8s.io"}, Resources: []string{"leases"}, Verbs: verbsRW},
			{APIGroups: []string{""}, Resources: []string{"events"}, Verbs: []string{"create", "patch"}},
		},
	}
}

func clusterRoleBinding(namespace string) *rbacv1.ClusterRoleBinding {
	return &rbacv1.ClusterRoleBinding{
		ObjectMeta: metav1.ObjectMeta{Name: ControllerName, Labels: managedLabels()},
		RoleRef: rbacv1.RoleRef{
			APIGroup: rbacv1.GroupName,
			Kind:     "ClusterRole",
			Name:     ControllerName,
		},
		Subjects: []rbacv1.Subject{{
			Kind:      rbacv1.ServiceAccountKind,
			Name:      ControllerName,
			Namespace: namespace,
		}},
	}
}

func controllerDeployment(opts Options) *appsv1.Deployment {
	labels := map[string]string{"app.kubernetes.io/name": ControllerName}
	probe := func(path string) *corev1.Probe {
		return &corev1.Probe{
			ProbeHandler: corev1.ProbeHandler{
				HTTPGet: &corev1.HTTPGetAction{Path: path, Port: intstr.FromInt32(probePort)},
			},
			PeriodSeconds: 10,
		}
	}

	args := []string{
		"controller", "run",
		"--in-cluster",
		"--engine=manager",
		"--leader-election",
		"--leader-election-namespace=" + opts.Namespace,
		"--probe-addr=:8081",
		"--metrics-addr=:8080",
		"--journal=" + journalDir + "/journal.db",
		"--log-format=json",
	}

	return &appsv1.Deployment{
		ObjectMeta: metav1.ObjectMeta{Name: ControllerName, Namespace: opts.Namespace, Labels: managedLabels()},
		Spec: appsv1.DeploymentSpec{
			Replicas: ptr.To[int32](1),
			Selector: &metav1.LabelSelector{MatchLabels: labels},
			Template: corev1.PodTemplateSpec{
				ObjectMeta: metav1.ObjectMeta{Labels: labels},
				Spec: corev1.PodSpec{
					ServiceAccountName: ControllerName,
					Containers: []corev1.Container{{
						Name:  "controller",
						Image: opts.Image,
						Args:  args,
						Ports: []corev1.ContainerPort{
							{Name: "probes", ContainerPort: probePort},
							{Name: "metrics", ContainerPort: metricsPort},
						},
						LivenessProbe:  probe("/healthz"),
						ReadinessProbe: probe("/readyz"),
						VolumeMounts:   []corev1.VolumeMount{{Name: "journal", MountPath: journalDir}},
						SecurityContext: &corev1.SecurityContext{
							RunAsNonRoot:             ptr.To(true),
							AllowPrivilegeEscalation: ptr.To(false),
							ReadOnlyRootFilesystem:   ptr.To(true),
						},
					}},
					Volumes: []corev1.Volume{{
						Name:         "journal",
						VolumeSource: corev1.VolumeSource{EmptyDir: &corev1.EmptyDirVolumeSource{}},
					}},
				},
			},
		},
	}
}
