package timestep

// Observation names produced by a physics-state provider
const (
	PhaseObs            = "timestep_phase_observation"
	JointPositionObs    = "joint_position_observation"
	JointVelocityObs    = "joint_velocity_observation"
	ProjectedGravityObs = "projected_gravity_observation"
	IMUAccObs           = "sensor_observation_imu_acc"
	IMUGyroObs          = "sensor_observation_imu_gyro"
	FeetContactObs      = "feet_contact_observation"
	FeetPositionObs     = "feet_position_observation"
	BasePositionObs     = "base_position_observation"
	BaseOrientationObs  = "base_orientation_observation"
	BaseLinearVelObs    = "base_linear_velocity_observation"
	BaseAngularVelObs   = "base_angular_velocity_observation"
	ActuatorForceObs    = "actuator_force_observation"
	CenterOfMassVelObs  = "center_of_mass_velocity_observation"
	BaseSiteLinVelObs   = "sensor_observation_base_site_linvel"
	BaseSiteAngVelObs   = "sensor_observation_base_site_angvel"
	LeftFootForceObs    = "sensor_observation_left_foot_force"
	RightFootForceObs   = "sensor_observation_right_foot_force"
)

// Command names produced by the command generators
const (
	LinearVelocityCmd  = "linear_velocity_command"
	AngularVelocityCmd = "angular_velocity_command"
	GaitFrequencyCmd   = "gait_frequency_command"
)
